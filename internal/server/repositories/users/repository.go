// Package users reads the user directory. The credential gate owns writes
// to this table; the vault only resolves usernames for sharing.
package users

import (
	"context"

	"github.com/mpetrovs/filevault/internal/server/models"
)

type Repository interface {
	// GetByUsername returns the user or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
