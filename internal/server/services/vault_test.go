package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/cryptox"
	"github.com/mpetrovs/filevault/internal/logging"
	"github.com/mpetrovs/filevault/internal/server/blob"
	"github.com/mpetrovs/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Identity{UserID: "u-alice", Username: "alice"}
	bob   = Identity{UserID: "u-bob", Username: "bob"}
)

func newVault(t *testing.T) (*VaultService, *fakeRepoManager, *blob.MemStore) {
	t.Helper()

	cipher, err := cryptox.NewCipher("test-secret")
	require.NoError(t, err)

	m := newFakeRepoManager()
	m.u.byName["alice"] = &models.User{ID: alice.UserID, Username: "alice"}
	m.u.byName["bob"] = &models.User{ID: bob.UserID, Username: "bob"}

	blobs := blob.NewMemStore()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	return NewVaultService(newTxDB(t), m, blobs, cipher, logger), m, blobs
}

func TestUpload_Validation(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	_, err := v.Upload(ctx, alice, "report.pdf", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = v.Upload(ctx, alice, "", []byte("content"))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = v.Upload(ctx, alice, "dir/", []byte("content"))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpload_EncryptsAtRest(t *testing.T) {
	v, m, blobs := newVault(t)
	ctx := context.Background()

	content := []byte("very private bytes")
	fileID, err := v.Upload(ctx, alice, "../evil/report.pdf", content)
	require.NoError(t, err)

	file, err := m.c.Get(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", file.OriginalFilename)
	assert.Equal(t, alice.UserID, file.OwnerID)
	assert.False(t, file.Archived)

	// the stored blob must not contain the plaintext
	stored, err := blobs.Get(ctx, file.StoredBlobID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "very private bytes")
	assert.Equal(t, 1, blobs.Len())
}

func TestUpload_BlobKeysUnique(t *testing.T) {
	v, m, _ := newVault(t)
	ctx := context.Background()

	id1, err := v.Upload(ctx, alice, "a.txt", []byte("same content"))
	require.NoError(t, err)
	id2, err := v.Upload(ctx, alice, "a.txt", []byte("same content"))
	require.NoError(t, err)

	f1, err := m.c.Get(ctx, id1)
	require.NoError(t, err)
	f2, err := m.c.Get(ctx, id2)
	require.NoError(t, err)
	assert.NotEqual(t, f1.StoredBlobID, f2.StoredBlobID)
}

func TestDownload_OwnerRoundTrip(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	content := bytes.Repeat([]byte("x"), 37)
	fileID, err := v.Upload(ctx, alice, "report.pdf", content)
	require.NoError(t, err)

	name, got, err := v.Download(ctx, alice, fileID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, content, got)
}

func TestDownload_DeniedForStranger(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	_, _, err = v.Download(ctx, bob, fileID)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestDownload_MissingFileLooksLikeDenied(t *testing.T) {
	v, _, _ := newVault(t)

	_, _, err := v.Download(context.Background(), alice, 9999)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestShareThenDownload(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	content := []byte("shared content")
	fileID, err := v.Upload(ctx, alice, "report.pdf", content)
	require.NoError(t, err)

	require.NoError(t, v.Share(ctx, alice, fileID, "bob", nil))

	name, got, err := v.Download(ctx, bob, fileID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, content, got)

	// the grantee got a notification
	items, err := v.Notifications(ctx, bob)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Message, "alice")
	assert.Contains(t, items[0].Message, "report.pdf")
}

func TestShare_ExpiredImmediately(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Second)
	require.NoError(t, v.Share(ctx, alice, fileID, "bob", &past))

	// the grant is recorded but already inert
	_, _, err = v.Download(ctx, bob, fileID)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestShare_NotOwner(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	err = v.Share(ctx, bob, fileID, "alice", nil)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestShare_MissingFileLooksLikeDenied(t *testing.T) {
	v, _, _ := newVault(t)

	err := v.Share(context.Background(), alice, 9999, "bob", nil)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestShare_GranteeNotFound(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	err = v.Share(ctx, alice, fileID, "nobody", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShare_Duplicate(t *testing.T) {
	v, m, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	require.NoError(t, v.Share(ctx, alice, fileID, "bob", nil))

	err = v.Share(ctx, alice, fileID, "bob", nil)
	assert.ErrorIs(t, err, common.ErrorAlreadyShared)
	assert.Equal(t, 1, m.s.count())
}

func TestShare_ArchivedFileStillShareable(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)
	require.NoError(t, v.Archive(ctx, alice, fileID))

	require.NoError(t, v.Share(ctx, alice, fileID, "bob", nil))

	_, _, err = v.Download(ctx, bob, fileID)
	assert.NoError(t, err)
}

func TestArchive(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	fileID, err := v.Upload(ctx, alice, "report.pdf", []byte("content"))
	require.NoError(t, err)

	// non-owner archive is denied and leaves the file active
	err = v.Archive(ctx, bob, fileID)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)

	files, err := v.ListMine(ctx, alice, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, v.Archive(ctx, alice, fileID))

	files, err = v.ListMine(ctx, alice, false)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = v.ListMine(ctx, alice, true)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Archived)

	// archived files stay addressable by id
	_, _, err = v.Download(ctx, alice, fileID)
	assert.NoError(t, err)
}

func TestArchive_MissingFile(t *testing.T) {
	v, _, _ := newVault(t)

	err := v.Archive(context.Background(), alice, 9999)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

func TestListMine_NewestFirst(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	id1, err := v.Upload(ctx, alice, "first.txt", []byte("1"))
	require.NoError(t, err)
	id2, err := v.Upload(ctx, alice, "second.txt", []byte("2"))
	require.NoError(t, err)

	files, err := v.ListMine(ctx, alice, false)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, id2, files[0].ID)
	assert.Equal(t, id1, files[1].ID)
}

func TestListSharedWithMe_SkipsExpired(t *testing.T) {
	v, _, _ := newVault(t)
	ctx := context.Background()

	id1, err := v.Upload(ctx, alice, "live.txt", []byte("1"))
	require.NoError(t, err)
	id2, err := v.Upload(ctx, alice, "expired.txt", []byte("2"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Second)
	require.NoError(t, v.Share(ctx, alice, id1, "bob", nil))
	require.NoError(t, v.Share(ctx, alice, id2, "bob", &past))

	shared, err := v.ListSharedWithMe(ctx, bob)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, id1, shared[0].FileID)
}

func TestDownload_MissingBlobIsInternal(t *testing.T) {
	v, m, _ := newVault(t)
	ctx := context.Background()

	// catalog row pointing at a blob that was never written
	file := &models.File{OwnerID: alice.UserID, OriginalFilename: "x.txt", StoredBlobID: "ghost"}
	require.NoError(t, m.c.Insert(ctx, file))

	_, _, err := v.Download(ctx, alice, file.ID)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
