package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/dbx"
	"github.com/mpetrovs/filevault/internal/server/models"
	"github.com/mpetrovs/filevault/internal/server/repositories/catalog"
	"github.com/mpetrovs/filevault/internal/server/repositories/notifications"
	"github.com/mpetrovs/filevault/internal/server/repositories/shares"
	"github.com/mpetrovs/filevault/internal/server/repositories/users"
)

// In-memory repository fakes mirroring the SQL implementations closely
// enough to exercise the engine's semantics: the catalog's conditional
// archive, the registry's uniqueness constraint and lazy expiry, the user
// directory lookup.

type fakeCatalog struct {
	catalog.Repository
	mu     sync.Mutex
	nextID int64
	files  map[int64]*models.File

	insertErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{files: make(map[int64]*models.File)}
}

func (f *fakeCatalog) Insert(ctx context.Context, file *models.File) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	file.ID = f.nextID
	file.UploadedAt = time.Now()
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeCatalog) Get(ctx context.Context, id int64) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *file
	return &cp, nil
}

func (f *fakeCatalog) ListOwned(ctx context.Context, ownerID string, includeArchived bool) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.File
	for id := f.nextID; id >= 1; id-- {
		file, ok := f.files[id]
		if !ok || file.OwnerID != ownerID {
			continue
		}
		if file.Archived && !includeArchived {
			continue
		}
		cp := *file
		result = append(result, &cp)
	}
	return result, nil
}

func (f *fakeCatalog) SetArchived(ctx context.Context, id int64, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok || file.OwnerID != ownerID {
		return false, nil
	}
	file.Archived = true
	return true, nil
}

type fakeShares struct {
	shares.Repository
	mu     sync.Mutex
	grants map[string]*models.ShareGrant

	createErr error
}

func newFakeShares() *fakeShares {
	return &fakeShares{grants: make(map[string]*models.ShareGrant)}
}

func shareKey(fileID int64, granteeID string) string {
	return fmt.Sprintf("%d/%s", fileID, granteeID)
}

func (f *fakeShares) Create(ctx context.Context, grant *models.ShareGrant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := shareKey(grant.FileID, grant.GranteeUserID)
	if _, exists := f.grants[key]; exists {
		return common.ErrorAlreadyShared
	}
	cp := *grant
	cp.CreatedAt = time.Now()
	f.grants[key] = &cp
	return nil
}

func (f *fakeShares) Active(ctx context.Context, fileID int64, granteeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grant, ok := f.grants[shareKey(fileID, granteeID)]
	if !ok {
		return false, nil
	}
	return grant.ExpiresAt == nil || grant.ExpiresAt.After(time.Now()), nil
}

func (f *fakeShares) ListReceived(ctx context.Context, userID string) ([]*models.SharedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.SharedFile
	for _, grant := range f.grants {
		if grant.GranteeUserID != userID {
			continue
		}
		if grant.ExpiresAt != nil && !grant.ExpiresAt.After(time.Now()) {
			continue
		}
		result = append(result, &models.SharedFile{FileID: grant.FileID, ExpiresAt: grant.ExpiresAt})
	}
	return result, nil
}

func (f *fakeShares) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

type fakeUsers struct {
	users.Repository
	byName map[string]*models.User
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := f.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

type fakeNotifications struct {
	notifications.Repository
	mu    sync.Mutex
	items []*models.Notification

	createErr error
}

func (f *fakeNotifications) Create(ctx context.Context, userID, message string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, &models.Notification{
		ID:        int64(len(f.items) + 1),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeNotifications) ListRecent(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Notification
	for i := len(f.items) - 1; i >= 0 && len(result) < limit; i-- {
		if f.items[i].UserID == userID {
			result = append(result, f.items[i])
		}
	}
	return result, nil
}

type fakeRepoManager struct {
	c *fakeCatalog
	s *fakeShares
	u *fakeUsers
	n *fakeNotifications
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		c: newFakeCatalog(),
		s: newFakeShares(),
		u: &fakeUsers{byName: make(map[string]*models.User)},
		n: &fakeNotifications{},
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Catalog(db dbx.DBTX) catalog.Repository              { return m.c }
func (m *fakeRepoManager) Shares(db dbx.DBTX) shares.Repository                { return m.s }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.u }
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notifications.Repository  { return m.n }

// newTxDB returns a sqlmock db that tolerates any number of transactions;
// the fakes above do the real work, the tx handle is only plumbing.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	return db
}
