// Package catalog stores file metadata: ownership, display name, blob
// pointer, archived flag.
package catalog

import (
	"context"

	"github.com/mpetrovs/filevault/internal/server/models"
)

type Repository interface {
	// Insert creates the catalog row and fills file.ID and file.UploadedAt.
	Insert(ctx context.Context, file *models.File) error

	// Get returns the file or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.File, error)

	// ListOwned returns the user's files, newest upload first. Archived
	// files are included only when includeArchived is set.
	ListOwned(ctx context.Context, ownerID string, includeArchived bool) ([]*models.File, error)

	// SetArchived marks the file archived iff it exists and ownerID owns
	// it, in a single conditional update. Returns false otherwise; absent
	// and not-owned are indistinguishable.
	SetArchived(ctx context.Context, id int64, ownerID string) (bool, error)
}
