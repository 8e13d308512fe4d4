package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Didstopia/ruffle-manager/internal/platform"
	"github.com/Didstopia/ruffle-manager/internal/state"
)

func newTestStore(t *testing.T) *state.Storage {
	t.Helper()
	store := state.NewStorageWithPath(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, store.Load())
	return store
}

func TestRenderStatus(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t)

	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.MkdirAll(platform.Web.Dir(root), 0755))
	require.NoError(t, store.SetInstalled(platform.Web, "ruffle-nightly-2024_05_01-web-selfhosted.zip", published))

	ok := state.NewInstallRecord(platform.Web, "ruffle-nightly-2024_05_01-web-selfhosted.zip", published)
	ok.Complete(nil)
	require.NoError(t, store.AddInstallRecord(ok))

	failed := state.NewInstallRecord(platform.Standalone, "ruffle-nightly-2024_05_01-linux-x86_64.tar.gz", published)
	failed.Complete(errors.New("download failed"))
	require.NoError(t, store.AddInstallRecord(failed))

	var buf bytes.Buffer
	renderStatus(&buf, store, root, 5)

	output := buf.String()
	assert.Contains(t, output, "Players")
	assert.Contains(t, output, "ruffle-nightly-2024_05_01-web-selfhosted.zip")
	assert.Contains(t, output, "directory missing")
	assert.Contains(t, output, "Recent installs")
	assert.Contains(t, output, "download failed")
	assert.Contains(t, output, "ok")
}

func TestRenderStatus_NotInstalled(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(platform.Standalone.Dir(root), 0755))

	var buf bytes.Buffer
	renderStatus(&buf, store, root, 5)

	output := buf.String()
	assert.Contains(t, output, "not installed")
	assert.Contains(t, output, "No installs recorded yet")
}

func TestRenderStatus_HistoryDisabled(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, newTestStore(t), t.TempDir(), 0)

	assert.Contains(t, buf.String(), "Players")
	assert.NotContains(t, buf.String(), "Recent installs")
}

func TestTargetRow(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t)
	dir := platform.Standalone.Dir(root)

	row := targetRow(store, platform.Standalone, dir)
	assert.Equal(t, []string{"standalone", dir, "directory missing", "-", "-"}, row)

	require.NoError(t, os.MkdirAll(dir, 0755))
	row = targetRow(store, platform.Standalone, dir)
	assert.Equal(t, "not installed", row[2])

	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetInstalled(platform.Standalone, "ruffle-linux.tar.gz", published))
	row = targetRow(store, platform.Standalone, dir)
	assert.Equal(t, "ruffle-linux.tar.gz", row[2])
	assert.Equal(t, published.Local().Format(time.DateTime), row[3])
	assert.NotEqual(t, "-", row[4])
}
