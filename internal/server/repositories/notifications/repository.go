// Package notifications stores the per-user feed written when shares are
// granted.
package notifications

import (
	"context"

	"github.com/mpetrovs/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, message string) error

	// ListRecent returns up to limit notifications, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
}
