package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/dbx"
	"github.com/mpetrovs/filevault/internal/server/models"
)

// PostgresRepository implements the catalog over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (owner_id, original_filename, stored_blob_id)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.OriginalFilename, file.StoredBlobID).
		Scan(&file.ID, &file.UploadedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.File, error) {
	query := `
		SELECT id, owner_id, original_filename, stored_blob_id, uploaded_at, is_archived
		FROM files
		WHERE id = $1
	`
	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.OwnerID, &file.OriginalFilename,
		&file.StoredBlobID, &file.UploadedAt, &file.Archived)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) ListOwned(ctx context.Context, ownerID string, includeArchived bool) ([]*models.File, error) {
	query := `
		SELECT id, owner_id, original_filename, stored_blob_id, uploaded_at, is_archived
		FROM files
		WHERE owner_id = $1 AND (is_archived = false OR $2)
		ORDER BY uploaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.OriginalFilename,
			&item.StoredBlobID, &item.UploadedAt, &item.Archived); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetArchived runs the owner-checked update and reports rows affected.
// Archiving an already archived file is a no-op success, keeping the
// operation idempotent under concurrent calls.
func (r *PostgresRepository) SetArchived(ctx context.Context, id int64, ownerID string) (bool, error) {
	query := `UPDATE files SET is_archived = true WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
