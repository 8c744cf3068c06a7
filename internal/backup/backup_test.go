package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/internal/storage/sqlite"
	"github.com/napphq/napp/pkg/types"
)

// newTestDB creates a real napp database on disk with one stored item.
func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "napp.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveItem(context.Background(), &types.Item{
		Kind:        types.KindArticle,
		NaturalKey:  "https://example.com/a",
		Headline:    "A headline",
		PublishedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return path
}

func TestBackupNow_CreatesVerifiedCopy(t *testing.T) {
	dbPath := newTestDB(t)
	dir := t.TempDir()

	svc, err := NewService(Config{DBPath: dbPath, Dir: dir, Verify: true})
	require.NoError(t, err)

	result, err := svc.BackupNow(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.Greater(t, result.Size, int64(0))

	// The copy opens as a valid database with the data intact.
	copyStore, err := sqlite.New(result.Path)
	require.NoError(t, err)
	defer copyStore.Close()

	exists, err := copyStore.ItemExists(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBackupNow_MissingDatabase(t *testing.T) {
	svc, err := NewService(Config{
		DBPath: filepath.Join(t.TempDir(), "absent.db"),
		Dir:    t.TempDir(),
	})
	require.NoError(t, err)

	_, err = svc.BackupNow(context.Background())
	assert.Error(t, err)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Config{Dir: t.TempDir()})
	assert.Error(t, err, "missing db path must be rejected")

	_, err = NewService(Config{DBPath: "x.db"})
	assert.Error(t, err, "missing backup dir must be rejected")
}

func TestApplyRetention_DeletesBeyondTierLimit(t *testing.T) {
	dir := t.TempDir()

	// Three recent backups with an hourly keep-count of two.
	for _, name := range []string{"napp-backup-1.db", "napp-backup-2.db", "napp-backup-3.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	policy := RetentionPolicy{Hourly: 2, Daily: 7, Weekly: 4, Monthly: 12}
	require.NoError(t, applyRetention(dir, policy))

	remaining, err := listBackups(dir)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestApplyRetention_DeletesAncientBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "napp-backup-old.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ancient := time.Now().Add(-2 * 365 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(path, ancient, ancient))

	policy := RetentionPolicy{}
	policy.applyDefaults()
	require.NoError(t, applyRetention(dir, policy))

	remaining, err := listBackups(dir)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListBackups_IgnoresNonDatabaseFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "napp-backup-1.db"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	backups, err := listBackups(dir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}
