package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Didstopia/ruffle-manager/internal/platform"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s := NewSQLiteStore(path)
	require.NoError(t, s.Load())

	_, ok := s.InstalledVersion(platform.Standalone)
	assert.False(t, ok)
	assert.False(t, s.IsFirstRunComplete())

	require.NoError(t, s.SetInstalled(platform.Standalone, "ruffle-linux.tar.gz", published))
	require.NoError(t, s.SetInstalled(platform.Standalone, "ruffle-linux.tar.gz", published))
	require.NoError(t, s.SetFirstRunComplete(true))

	record := NewInstallRecord(platform.Standalone, "ruffle-linux.tar.gz", published)
	record.Complete(nil)
	require.NoError(t, s.AddInstallRecord(record))
	require.NoError(t, s.Close())

	reloaded := NewSQLiteStore(path)
	require.NoError(t, reloaded.Load())
	defer reloaded.Close()

	got, ok := reloaded.InstalledVersion(platform.Standalone)
	require.True(t, ok)
	assert.True(t, published.Equal(got))
	assert.True(t, reloaded.IsFirstRunComplete())

	history := reloaded.GetRecentHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
	assert.True(t, history[0].Succeeded())
	assert.True(t, published.Equal(history[0].PublishedAt))
}

func TestSQLiteStore_PrunesHistory(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, s.Load())
	defer s.Close()

	for i := 0; i < MaxHistory+5; i++ {
		r := NewInstallRecord(platform.Web, "a.zip", published)
		r.Complete(nil)
		require.NoError(t, s.AddInstallRecord(r))
	}

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count))
	assert.Equal(t, MaxHistory, count)
	assert.Len(t, s.GetRecentHistory(MaxHistory*2), MaxHistory)
}

func TestSQLiteStore_WriteBeforeLoad(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))

	assert.Error(t, s.SetInstalled(platform.Web, "a.zip", published))
	assert.NoError(t, s.Close())
}

func TestSQLiteStore_SeesOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	watcher := NewSQLiteStore(path)
	require.NoError(t, watcher.Load())
	defer watcher.Close()

	other := NewSQLiteStore(path)
	require.NoError(t, other.Load())
	defer other.Close()

	fractional := time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.UTC)
	require.NoError(t, other.SetInstalled(platform.Web, "ruffle-web-selfhosted.zip", fractional))
	require.NoError(t, other.SetFirstRunComplete(true))

	got, ok := watcher.InstalledVersion(platform.Web)
	require.True(t, ok)
	assert.True(t, fractional.Equal(got))
	assert.True(t, watcher.IsFirstRunComplete())
}

func TestSQLiteStore_FailedWriteKeepsMarker(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, s.Load())
	defer s.Close()

	require.NoError(t, s.SetInstalled(platform.Standalone, "old.tar.gz", published))
	_, err := s.db.Exec(`
		CREATE TRIGGER reject_insert BEFORE INSERT ON installs BEGIN SELECT RAISE(ABORT, 'disk full'); END;
		CREATE TRIGGER reject_update BEFORE UPDATE ON installs BEGIN SELECT RAISE(ABORT, 'disk full'); END;`)
	require.NoError(t, err)

	assert.Error(t, s.SetInstalled(platform.Standalone, "new.tar.gz", published.Add(time.Hour)))

	got, ok := s.InstalledVersion(platform.Standalone)
	require.True(t, ok)
	assert.True(t, published.Equal(got))
	assert.Equal(t, "old.tar.gz", s.state.Installs["standalone"].Asset)
}
