package overrides

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Didstopia/ruffle-manager/internal/platform"
)

func TestForTarget(t *testing.T) {
	v, err := ForTarget(platform.Standalone)
	require.NoError(t, err)
	assert.Equal(t, ":ruffle:", v)

	v, err = ForTarget(platform.Web)
	require.NoError(t, err)
	assert.Equal(t, ":ruffle-web:", v)

	_, err = ForTarget(platform.Target("desktop"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Run("adds every unique path once", func(t *testing.T) {
		out, added, err := Apply([]byte(`{"appPathOverrides":[]}`), WebOverride, FlashPaths)

		require.NoError(t, err)
		// the built-in list repeats flashplayer_32_sa.exe
		assert.Len(t, added, len(FlashPaths)-1)
		list := gjson.GetBytes(out, Key).Array()
		require.Len(t, list, len(FlashPaths)-1)
		assert.Equal(t, FlashPaths[0], list[0].Get("path").String())
		assert.Equal(t, WebOverride, list[0].Get("override").String())
		assert.True(t, list[0].Get("enabled").Bool())
	})

	t.Run("keeps existing entries and skips their paths", func(t *testing.T) {
		in := `{"appPathOverrides":[{"path":"FPSoftware\\Flash\\flashplayer_7_sa.exe","override":"custom.exe","enabled":false}]}`

		out, added, err := Apply([]byte(in), StandaloneOverride, FlashPaths)

		require.NoError(t, err)
		assert.NotContains(t, added, `FPSoftware\Flash\flashplayer_7_sa.exe`)
		first := gjson.GetBytes(out, Key+".0")
		assert.Equal(t, "custom.exe", first.Get("override").String())
		assert.False(t, first.Get("enabled").Bool())
	})

	t.Run("preserves other keys byte for byte", func(t *testing.T) {
		in := `{"browserModeProxy":"localhost:22500",  "nested": {"a": [1, 2]},"appPathOverrides":[]}`

		out, _, err := Apply([]byte(in), WebOverride, FlashPaths[:1])

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), `{"browserModeProxy":"localhost:22500",  "nested": {"a": [1, 2]},"appPathOverrides":[`))
	})

	t.Run("creates the list when missing", func(t *testing.T) {
		out, added, err := Apply([]byte(`{"theme":"dark"}`), WebOverride, FlashPaths[:2])

		require.NoError(t, err)
		assert.Len(t, added, 2)
		assert.Equal(t, "dark", gjson.GetBytes(out, "theme").String())
		assert.Len(t, gjson.GetBytes(out, Key).Array(), 2)
	})

	t.Run("second apply is a no-op", func(t *testing.T) {
		out, _, err := Apply([]byte(`{}`), WebOverride, FlashPaths)
		require.NoError(t, err)

		again, added, err := Apply(out, StandaloneOverride, FlashPaths)

		require.NoError(t, err)
		assert.Empty(t, added)
		assert.Equal(t, string(out), string(again))
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		_, _, err := Apply([]byte(`{"appPathOverrides":`), WebOverride, FlashPaths)
		assert.Error(t, err)

		_, _, err = Apply([]byte(`{"appPathOverrides":"nope"}`), WebOverride, FlashPaths)
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"appPathOverrides":[],"useWine":true}`), 0600))

	added, err := Register(path, platform.Standalone)
	require.NoError(t, err)
	assert.NotEmpty(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "useWine").Bool())
	assert.Equal(t, StandaloneOverride, gjson.GetBytes(data, Key+".0.override").String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	added, err = Register(path, platform.Web)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestRegister_MissingFile(t *testing.T) {
	_, err := Register(filepath.Join(t.TempDir(), "missing.json"), platform.Web)
	assert.Error(t, err)
}
