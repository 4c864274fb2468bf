package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/server/models"
	"github.com/mpetrovs/filevault/internal/server/repositories/repomanager"
)

// AccessLevel is the effective permission of a user on a file.
type AccessLevel int

const (
	// AccessNone: no permission, or the file does not exist. The two are
	// indistinguishable on purpose.
	AccessNone AccessLevel = iota
	// AccessSharedReader: an unexpired grant names the user.
	AccessSharedReader
	// AccessOwner: the file's owner_id equals the user.
	AccessOwner
)

// AccessResolver computes the effective permission for (user, file) from
// the catalog and the share registry.
type AccessResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAccessResolver(db *sql.DB, m repomanager.RepositoryManager) *AccessResolver {
	return &AccessResolver{db: db, repomanager: m}
}

// Resolve fetches the file and classifies the user. Ownership is checked
// before any grant lookup, so owners never need a self-grant and are never
// downgraded by the absence of one. Non-owners are gated purely by the
// existence of an unexpired grant. The file is returned alongside the
// level so callers avoid a second catalog fetch; it is nil for AccessNone.
func (r *AccessResolver) Resolve(ctx context.Context, userID string, fileID int64) (AccessLevel, *models.File, error) {
	file, err := r.repomanager.Catalog(r.db).Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return AccessNone, nil, nil
		}
		return AccessNone, nil, fmt.Errorf("resolving access: %w", err)
	}

	if file.OwnerID == userID {
		return AccessOwner, file, nil
	}

	active, err := r.repomanager.Shares(r.db).Active(ctx, fileID, userID)
	if err != nil {
		return AccessNone, nil, fmt.Errorf("resolving access: %w", err)
	}
	if active {
		return AccessSharedReader, file, nil
	}

	return AccessNone, nil, nil
}
