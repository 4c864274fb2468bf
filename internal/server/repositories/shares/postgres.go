package shares

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/dbx"
	"github.com/mpetrovs/filevault/internal/server/models"
)

// uniqueViolation is the SQLSTATE raised when the (file_id, grantee_user_id)
// primary key rejects a duplicate grant.
const uniqueViolation = "23505"

// PostgresRepository implements the share registry over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create attempts the insert unconditionally and translates a constraint
// violation into ErrorAlreadyShared. The constraint is the single source
// of truth under concurrent grants; there is no racy pre-check.
func (r *PostgresRepository) Create(ctx context.Context, grant *models.ShareGrant) error {
	query := `
		INSERT INTO file_shares (file_id, grantee_user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, grant.FileID, grant.GranteeUserID, grant.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyShared
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Active(ctx context.Context, fileID int64, granteeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM file_shares
			WHERE file_id = $1 AND grantee_user_id = $2
			  AND (expires_at IS NULL OR expires_at > now())
		)
	`
	var active bool
	if err := r.db.QueryRowContext(ctx, query, fileID, granteeID).Scan(&active); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return active, nil
}

func (r *PostgresRepository) ListReceived(ctx context.Context, userID string) ([]*models.SharedFile, error) {
	query := `
		SELECT f.id, f.original_filename, f.uploaded_at, u.username, s.expires_at
		FROM file_shares s
		JOIN files f ON f.id = s.file_id
		JOIN users u ON u.id = f.owner_id
		WHERE s.grantee_user_id = $1
		  AND (s.expires_at IS NULL OR s.expires_at > now())
		ORDER BY f.uploaded_at DESC, f.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SharedFile
	for rows.Next() {
		var item models.SharedFile
		if err := rows.Scan(&item.FileID, &item.OriginalFilename,
			&item.UploadedAt, &item.OwnerName, &item.ExpiresAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
