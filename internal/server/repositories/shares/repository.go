// Package shares stores grant rows: who may read which file, and until
// when. The table is append-only; expiry is evaluated at query time and
// expired rows are never purged.
package shares

import (
	"context"

	"github.com/mpetrovs/filevault/internal/server/models"
)

type Repository interface {
	// Create inserts the grant. A duplicate (file_id, grantee_user_id)
	// pair surfaces as common.ErrorAlreadyShared via the database
	// constraint; callers must not pre-check.
	Create(ctx context.Context, grant *models.ShareGrant) error

	// Active reports whether an unexpired grant names (fileID, granteeID).
	Active(ctx context.Context, fileID int64, granteeID string) (bool, error)

	// ListReceived returns unexpired grants for the user joined with file
	// and owner display data, newest file upload first.
	ListReceived(ctx context.Context, userID string) ([]*models.SharedFile, error)
}
