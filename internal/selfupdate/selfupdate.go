// Package selfupdate replaces the running ruffle-manager binary with the
// latest published release
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	gsu "github.com/creativeprojects/go-selfupdate"
)

const (
	// RepoOwner is the GitHub repository owner
	RepoOwner = "Didstopia"
	// RepoName is the GitHub repository name
	RepoName = "ruffle-manager"
)

// ErrDevBuild is returned when updating a build without a release version
var ErrDevBuild = errors.New("cannot update dev builds")

// Result contains information about an available update
type Result struct {
	CurrentVersion string
	LatestVersion  string
	Available      bool
	ReleaseURL     string
	ReleaseNotes   string
}

// Updater handles checking and performing updates
type Updater struct {
	repoOwner      string
	repoName       string
	currentVersion string
	token          string
}

// NewUpdater creates a new Updater instance. token may be empty.
func NewUpdater(currentVersion, token string) *Updater {
	return &Updater{
		repoOwner:      RepoOwner,
		repoName:       RepoName,
		currentVersion: currentVersion,
		token:          token,
	}
}

// IsDev returns true if this is a development build that should skip updates
func IsDev(version string) bool {
	return version == "" || version == "dev"
}

// detect finds the latest release and whether it is newer than the running
// version
func (u *Updater) detect(ctx context.Context) (*gsu.Updater, *gsu.Release, bool, error) {
	source, err := gsu.NewGitHubSource(gsu.GitHubConfig{APIToken: u.token})
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	updater, err := gsu.NewUpdater(gsu.Config{
		Source:    source,
		Validator: &gsu.ChecksumValidator{UniqueFilename: "checksums.txt"},
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to create updater: %w", err)
	}

	// Assets follow GoReleaser naming: ruffle-manager_VERSION_OS_ARCH.tar.gz
	latest, found, err := updater.DetectLatest(ctx, gsu.NewRepositorySlug(u.repoOwner, u.repoName))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return updater, nil, false, nil
	}

	newer, err := IsNewer(u.currentVersion, latest.Version())
	if err != nil {
		return nil, nil, false, err
	}
	return updater, latest, newer, nil
}

// CheckForUpdate checks if a new version is available
func (u *Updater) CheckForUpdate(ctx context.Context) (*Result, error) {
	result := &Result{CurrentVersion: u.currentVersion}
	if IsDev(u.currentVersion) {
		return result, nil
	}

	_, latest, newer, err := u.detect(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return result, nil
	}

	result.LatestVersion = latest.Version()
	result.Available = newer
	result.ReleaseURL = latest.URL
	result.ReleaseNotes = latest.ReleaseNotes
	return result, nil
}

// Update downloads and installs the latest version
func (u *Updater) Update(ctx context.Context) (*Result, error) {
	if IsDev(u.currentVersion) {
		return nil, ErrDevBuild
	}

	updater, latest, newer, err := u.detect(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{CurrentVersion: u.currentVersion}
	if latest == nil {
		return result, nil
	}
	result.LatestVersion = latest.Version()
	if !newer {
		return result, nil
	}

	exe, err := gsu.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("failed to update: %w", err)
	}

	result.Available = true
	result.ReleaseURL = latest.URL
	result.ReleaseNotes = latest.ReleaseNotes
	return result, nil
}

// IsNewer reports whether latest is a higher semantic version than current
func IsNewer(current, latest string) (bool, error) {
	currentVer, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("failed to parse current version %q: %w", current, err)
	}
	latestVer, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("failed to parse latest version %q: %w", latest, err)
	}
	return latestVer.GreaterThan(currentVer), nil
}

// FormatUpdateNotification returns a formatted string for the update notification
func FormatUpdateNotification(result *Result) string {
	if result == nil || !result.Available {
		return ""
	}
	return fmt.Sprintf("Update available: v%s -> v%s (run 'ruffle-manager self-update' to upgrade)",
		result.CurrentVersion, result.LatestVersion)
}

// GetPlatform returns the current platform string (os/arch)
func GetPlatform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
