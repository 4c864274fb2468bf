// Package services contains server-side business logic: the vault engine
// orchestrating upload, download, archive, share and listings, and the
// access resolver gating every read and mutation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/cryptox"
	"github.com/mpetrovs/filevault/internal/dbx"
	"github.com/mpetrovs/filevault/internal/filex"
	"github.com/mpetrovs/filevault/internal/logging"
	"github.com/mpetrovs/filevault/internal/server/blob"
	"github.com/mpetrovs/filevault/internal/server/models"
	"github.com/mpetrovs/filevault/internal/server/repositories/repomanager"
)

// notificationLimit caps the feed returned to a user.
const notificationLimit = 10

// Identity is the authenticated caller, supplied by the transport from the
// credential gate's token. The engine performs authorization only; there is
// no ambient session lookup inside it.
type Identity struct {
	UserID   string
	Username string
}

// VaultService orchestrates the content cipher, the blob store, the
// metadata catalog and the share registry.
//
// Policy notes:
//   - Archived files stay addressable by id: download and share still work
//     on them, only the default "my files" listing hides them.
//   - Sharing is append-only: grants are never revoked or deleted, an
//     expired grant simply stops matching.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	cipher      *cryptox.Cipher
	resolver    *AccessResolver
	logger      logging.Logger
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cipher *cryptox.Cipher, logger logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		cipher:      cipher,
		resolver:    NewAccessResolver(db, m),
		logger:      logger.With("module", "vault"),
	}
}

// newStorageKey generates a random, collision-resistant blob key. The date
// prefix only spreads keys across the bucket; nothing in the key is derived
// from content or filename.
func newStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Upload validates and sanitizes the filename, encrypts the content, writes
// the blob, then inserts the catalog row. The ordering is deliberate: a
// crash between the two writes leaves an orphan blob, never a catalog row
// pointing at nothing.
func (s *VaultService) Upload(ctx context.Context, id Identity, filename string, content []byte) (int64, error) {
	if len(content) == 0 {
		return 0, fmt.Errorf("empty file: %w", common.ErrorValidation)
	}

	sanitized, err := filex.SanitizeFilename(filename)
	if err != nil {
		return 0, fmt.Errorf("filename %q: %w", filename, err)
	}

	ciphertext, err := s.cipher.Encrypt(content)
	if err != nil {
		return 0, fmt.Errorf("encrypting content: %w", err)
	}

	key := newStorageKey()
	if err := s.blobs.Put(ctx, key, ciphertext); err != nil {
		return 0, fmt.Errorf("writing blob: %w", err)
	}

	file := &models.File{
		OwnerID:          id.UserID,
		OriginalFilename: sanitized,
		StoredBlobID:     key,
	}
	if err := s.repomanager.Catalog(s.db).Insert(ctx, file); err != nil {
		return 0, fmt.Errorf("inserting catalog row: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "file_id", file.ID, "size", len(content))
	return file.ID, nil
}

// Download returns the original filename and decrypted content. Any caller
// without access gets ErrorAccessDenied, whether the file exists or not.
func (s *VaultService) Download(ctx context.Context, id Identity, fileID int64) (string, []byte, error) {
	level, file, err := s.resolver.Resolve(ctx, id.UserID, fileID)
	if err != nil {
		return "", nil, err
	}
	if level == AccessNone {
		return "", nil, common.ErrorAccessDenied
	}

	ciphertext, err := s.blobs.Get(ctx, file.StoredBlobID)
	if err != nil {
		// A catalog row always points at an existing blob; a miss here is
		// an integrity failure, not a caller-visible not-found.
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "catalog row points at missing blob", "file_id", fileID, "blob_id", file.StoredBlobID)
			return "", nil, fmt.Errorf("blob %s missing: %w", file.StoredBlobID, common.ErrorInternal)
		}
		return "", nil, err
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return "", nil, fmt.Errorf("decrypting blob %s: %w", file.StoredBlobID, err)
	}

	return file.OriginalFilename, plaintext, nil
}

// Archive soft-archives an owned file via a single conditional update in
// the catalog. Absent and not-owned are the same ErrorAccessDenied.
func (s *VaultService) Archive(ctx context.Context, id Identity, fileID int64) error {
	ok, err := s.repomanager.Catalog(s.db).SetArchived(ctx, fileID, id.UserID)
	if err != nil {
		return fmt.Errorf("archiving file: %w", err)
	}
	if !ok {
		return common.ErrorAccessDenied
	}
	s.logger.Info(ctx, "file archived", "file_id", fileID)
	return nil
}

// Share grants granteeUsername read access to an owned file, optionally
// until expiresAt. Ownership is re-validated at call time; the grantee is
// resolved before the insert (ErrorNotFound leaks only that a username is
// unknown, which usernames are not secret enough to hide); the duplicate
// check is the registry's constraint, never a pre-check. The grant and the
// grantee's notification are written in one transaction.
func (s *VaultService) Share(ctx context.Context, id Identity, fileID int64, granteeUsername string, expiresAt *time.Time) error {
	if granteeUsername == "" {
		return fmt.Errorf("empty grantee: %w", common.ErrorValidation)
	}

	file, err := s.repomanager.Catalog(s.db).Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorAccessDenied
		}
		return fmt.Errorf("fetching file: %w", err)
	}
	if file.OwnerID != id.UserID {
		return common.ErrorAccessDenied
	}

	grantee, err := s.repomanager.Users(s.db).GetByUsername(ctx, granteeUsername)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("grantee %q: %w", granteeUsername, common.ErrorNotFound)
		}
		return fmt.Errorf("resolving grantee: %w", err)
	}

	grant := &models.ShareGrant{
		FileID:        fileID,
		GranteeUserID: grantee.ID,
		ExpiresAt:     expiresAt,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Shares(tx).Create(ctx, grant); err != nil {
			return err
		}
		msg := fmt.Sprintf("%s shared %q with you", id.Username, file.OriginalFilename)
		return s.repomanager.Notifications(tx).Create(ctx, grantee.ID, msg)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyShared) {
			return common.ErrorAlreadyShared
		}
		return fmt.Errorf("creating grant: %w", err)
	}

	s.logger.Info(ctx, "file shared", "file_id", fileID, "grantee", granteeUsername)
	return nil
}

// ListMine returns the caller's files, newest upload first. Archived files
// appear only when includeArchived is set.
func (s *VaultService) ListMine(ctx context.Context, id Identity, includeArchived bool) ([]*models.File, error) {
	files, err := s.repomanager.Catalog(s.db).ListOwned(ctx, id.UserID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// ListSharedWithMe returns files shared with the caller under unexpired
// grants, joined with owner display data, newest upload first.
func (s *VaultService) ListSharedWithMe(ctx context.Context, id Identity) ([]*models.SharedFile, error) {
	shared, err := s.repomanager.Shares(s.db).ListReceived(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing shared files: %w", err)
	}
	return shared, nil
}

// Notifications returns the caller's newest notifications.
func (s *VaultService) Notifications(ctx context.Context, id Identity) ([]*models.Notification, error) {
	items, err := s.repomanager.Notifications(s.db).ListRecent(ctx, id.UserID, notificationLimit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return items, nil
}
