// Package overrides registers launcher app path overrides that redirect
// legacy Flash player executables to the managed player
package overrides

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Didstopia/ruffle-manager/internal/platform"
)

// Key is the preferences key holding the override list
const Key = "appPathOverrides"

// Override values understood by the launcher
const (
	StandaloneOverride = ":ruffle:"
	WebOverride        = ":ruffle-web:"
)

// FlashPaths are the legacy Flash executables shipped with the launcher
var FlashPaths = []string{
	`FPSoftware\Flash\flashplayer_32_sa.exe`,
	`FPSoftware\Flash\6r21\SAFlashPlayer.exe`,
	`FPSoftware\Flash\6r4\SAFlashPlayer.exe`,
	`FPSoftware\Flash\7r14\SAFlashPlayer.exe`,
	`FPSoftware\Flash\8r22\SAFlashPlayer.exe`,
	`FPSoftware\Flash\9r16\SAFlashPlayer.exe`,
	`FPSoftware\Flash\flashplayer11_9r900_152_win_sa_debug.exe`,
	`FPSoftware\Flash\flashplayer14_0r0_179_win_sa.exe`,
	`FPSoftware\Flash\flashplayer19_0r0_245_sa.exe`,
	`FPSoftware\Flash\flashplayer27_0r0_187_win_sa.exe`,
	`FPSoftware\Flash\flashplayer9r277_win_sa.exe`,
	`FPSoftware\Flash\flashplayer_10_3r183_90_win_sa.exe`,
	`FPSoftware\Flash\flashplayer_32_sa.exe`,
	`FPSoftware\Flash\flashplayer_7_sa.exe`,
}

// AppPathOverride is a single launcher override entry
type AppPathOverride struct {
	Path     string `json:"path"`
	Override string `json:"override"`
	Enabled  bool   `json:"enabled"`
}

// ForTarget returns the override value that selects target
func ForTarget(t platform.Target) (string, error) {
	switch t {
	case platform.Standalone:
		return StandaloneOverride, nil
	case platform.Web:
		return WebOverride, nil
	default:
		return "", fmt.Errorf("no override for target %q", t)
	}
}

// Apply appends an override for every path that has no entry yet. All other
// content of the document is left untouched. It returns the updated document
// and the paths that were added.
func Apply(data []byte, override string, paths []string) ([]byte, []string, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("preferences are not valid JSON")
	}

	list := gjson.GetBytes(data, Key)
	if !list.Exists() {
		var err error
		data, err = sjson.SetRawBytes(data, Key, []byte("[]"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s: %w", Key, err)
		}
	} else if !list.IsArray() {
		return nil, nil, fmt.Errorf("%s is not a list", Key)
	}

	existing := make(map[string]bool)
	list.ForEach(func(_, value gjson.Result) bool {
		existing[value.Get("path").String()] = true
		return true
	})

	var added []string
	for _, path := range paths {
		if existing[path] {
			continue
		}
		var err error
		data, err = sjson.SetBytes(data, Key+".-1", AppPathOverride{Path: path, Override: override, Enabled: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add override for %s: %w", path, err)
		}
		existing[path] = true
		added = append(added, path)
	}

	return data, added, nil
}

// Register adds overrides for target to the preferences file at prefsPath.
// The file is rewritten only when something was added.
func Register(prefsPath string, target platform.Target) ([]string, error) {
	override, err := ForTarget(target)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(0644)
	data, err := os.ReadFile(prefsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if info, err := os.Stat(prefsPath); err == nil {
		mode = info.Mode().Perm()
	}

	updated, added, err := Apply(data, override, FlashPaths)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return nil, nil
	}

	tmp := filepath.Join(filepath.Dir(prefsPath), "."+filepath.Base(prefsPath)+".tmp")
	if err := os.WriteFile(tmp, updated, mode); err != nil {
		return nil, fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, prefsPath); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write preferences: %w", err)
	}

	return added, nil
}
