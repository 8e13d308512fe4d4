package install

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
	"github.com/Didstopia/ruffle-manager/internal/release"
)

type entry struct {
	name string
	body string
	dir  bool
}

func zipArchive(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.dir {
			_, err := zw.Create(e.name + "/")
			require.NoError(t, err)
			continue
		}
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzArchive(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for _, e := range entries {
		if e.dir {
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: e.name + "/", Typeflag: tar.TypeDir, Mode: 0755}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     0755,
			Size:     int64(len(e.body)),
		}))
		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(events *[]Event) ProgressFunc {
	return func(e Event) { *events = append(*events, e) }
}

func extracted(events []Event) []string {
	var names []string
	for _, e := range events {
		if e.Kind == EventExtract {
			names = append(names, e.Entry)
		}
	}
	return names
}

func TestInstall_Zip(t *testing.T) {
	body := zipArchive(t, []entry{
		{name: "ruffle.js", body: "js"},
		{name: "core", dir: true},
		{name: "core/ruffle.wasm", body: "wasm"},
	})
	srv := serve(t, body)
	dir := filepath.Join(t.TempDir(), "static", "ruffle")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0644))

	var events []Event
	inst := New(srv.Client(), "test-agent", nil)
	result, err := inst.Install(context.Background(), dir, &release.Artifact{
		Name: "ruffle-nightly-web-selfhosted.zip",
		URL:  srv.URL + "/web.zip",
	}, collect(&events))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, int64(len(body)), result.Bytes)
	sum := sha256.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.SHA256)

	assert.FileExists(t, filepath.Join(dir, "ruffle.js"))
	assert.FileExists(t, filepath.Join(dir, "core", "ruffle.wasm"))
	assert.NoFileExists(t, filepath.Join(dir, "stale.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "ruffle-nightly-web-selfhosted.zip"))

	assert.Equal(t, []string{"ruffle.js", "core/", "core/ruffle.wasm"}, extracted(events))
	require.NotEmpty(t, events)
	assert.Equal(t, EventDownload, events[0].Kind)
}

func TestInstall_TarGzTwoPasses(t *testing.T) {
	body := tarGzArchive(t, []entry{
		{name: "ruffle", body: "#!/bin/sh"},
		{name: "docs", dir: true},
		{name: "docs/README.md", body: "readme"},
	})
	srv := serve(t, body)
	dir := filepath.Join(t.TempDir(), "ruffle-standalone")

	var events []Event
	inst := New(srv.Client(), "test-agent", nil)
	result, err := inst.Install(context.Background(), dir, &release.Artifact{
		Name: "ruffle-nightly-linux.tar.gz",
		URL:  srv.URL + "/linux.tar.gz",
	}, collect(&events))

	require.NoError(t, err)
	// one entry for the gzip layer plus three tar entries
	assert.Equal(t, 4, result.Entries)
	assert.Equal(t, []string{"ruffle-nightly-linux.tar", "ruffle", "docs/", "docs/README.md"}, extracted(events))

	data, err := os.ReadFile(filepath.Join(dir, "ruffle"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "ruffle-nightly-linux.tar.gz"))
	assert.NoFileExists(t, filepath.Join(dir, "ruffle-nightly-linux.tar"))
}

func TestInstall_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	dir := filepath.Join(t.TempDir(), "ruffle-standalone")

	inst := New(srv.Client(), "", nil)
	_, err := inst.Install(context.Background(), dir, &release.Artifact{
		Name: "ruffle-windows.zip",
		URL:  srv.URL + "/missing.zip",
	}, nil)

	require.Error(t, err)
	assert.True(t, rerrors.IsInstallStage(err, rerrors.StageDownload))
	assert.Contains(t, err.Error(), "404")
	// the directory was already cleared, nothing is rolled back
	assert.DirExists(t, dir)
}

func TestInstall_CorruptArchive(t *testing.T) {
	srv := serve(t, []byte("not a zip"))
	dir := filepath.Join(t.TempDir(), "web")

	inst := New(srv.Client(), "test-agent", nil)
	_, err := inst.Install(context.Background(), dir, &release.Artifact{
		Name: "web-selfhosted.zip",
		URL:  srv.URL + "/web.zip",
	}, nil)

	require.Error(t, err)
	assert.True(t, rerrors.IsInstallStage(err, rerrors.StageUnpack))
}

func TestInstall_ZipSlip(t *testing.T) {
	body := zipArchive(t, []entry{{name: "../escape.txt", body: "x"}})
	srv := serve(t, body)
	parent := t.TempDir()
	dir := filepath.Join(parent, "web")

	inst := New(srv.Client(), "test-agent", nil)
	_, err := inst.Install(context.Background(), dir, &release.Artifact{
		Name: "web-selfhosted.zip",
		URL:  srv.URL + "/web.zip",
	}, nil)

	require.Error(t, err)
	assert.True(t, rerrors.IsInstallStage(err, rerrors.StageUnpack))
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
}

func TestInstall_Cancelled(t *testing.T) {
	srv := serve(t, []byte("data"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inst := New(srv.Client(), "test-agent", nil)
	_, err := inst.Install(ctx, filepath.Join(t.TempDir(), "web"), &release.Artifact{
		Name: "web-selfhosted.zip",
		URL:  srv.URL + "/web.zip",
	}, nil)

	assert.True(t, rerrors.IsInstallStage(err, rerrors.StageDownload))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstall_CancelledDuringExtraction(t *testing.T) {
	body := zipArchive(t, []entry{
		{name: "ruffle.js", body: "js"},
		{name: "ruffle.wasm", body: "wasm"},
		{name: "LICENSE.md", body: "license"},
	})
	srv := serve(t, body)
	dir := filepath.Join(t.TempDir(), "web")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var names []string
	progress := func(e Event) {
		if e.Kind == EventExtract {
			names = append(names, e.Entry)
			cancel()
		}
	}

	inst := New(srv.Client(), "test-agent", nil)
	_, err := inst.Install(ctx, dir, &release.Artifact{
		Name: "web-selfhosted.zip",
		URL:  srv.URL + "/web.zip",
	}, progress)

	assert.True(t, rerrors.IsInstallStage(err, rerrors.StageUnpack))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"ruffle.js"}, names)
	assert.NoFileExists(t, filepath.Join(dir, "ruffle.wasm"))
}

func TestUnpack_CancelledBetweenTarEntries(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: 1}))
		_, err := tw.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	path := filepath.Join(dir, "a.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, count, err := Unpack(ctx, dir, path, func(Event) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

func TestNew_DefaultClientHasNoTimeout(t *testing.T) {
	inst := New(nil, "", nil)
	require.NotNil(t, inst.client)
	assert.Zero(t, inst.client.Timeout)
}

func TestInstall_NilArtifact(t *testing.T) {
	_, err := New(nil, "", nil).Install(context.Background(), t.TempDir(), nil, nil)
	assert.Error(t, err)
}

func TestUnpack_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player.dmg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, _, err := Unpack(context.Background(), dir, path, nil)
	assert.ErrorContains(t, err, "unsupported archive type")
}

func TestUnpack_RejectsEscapingSymlink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "../../etc/passwd"}))
	require.NoError(t, tw.Close())
	path := filepath.Join(dir, "a.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, _, err := Unpack(context.Background(), dir, path, nil)
	assert.ErrorContains(t, err, "illegal symlink")
}

func TestSafeJoin(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"ruffle.js", false},
		{"core/ruffle.wasm", false},
		{"./a/../b.txt", false},
		{"../escape", true},
		{"a/../../escape", true},
		{"/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := safeJoin(dir, tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
