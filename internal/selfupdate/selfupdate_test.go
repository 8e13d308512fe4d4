package selfupdate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdater(t *testing.T) {
	updater := NewUpdater("1.0.0", "ghp_token")
	assert.Equal(t, "1.0.0", updater.currentVersion)
	assert.Equal(t, "ghp_token", updater.token)
	assert.Equal(t, RepoOwner, updater.repoOwner)
	assert.Equal(t, RepoName, updater.repoName)
}

func TestCheckForUpdate_DevBuild(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		t.Run("version "+version, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			result, err := NewUpdater(version, "").CheckForUpdate(ctx)
			require.NoError(t, err)
			assert.False(t, result.Available)
			assert.Equal(t, version, result.CurrentVersion)
		})
	}
}

func TestUpdate_DevBuild(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		t.Run("version "+version, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			result, err := NewUpdater(version, "").Update(ctx)
			assert.ErrorIs(t, err, ErrDevBuild)
			assert.Nil(t, result)
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
		wantErr bool
	}{
		{"1.0.0", "1.1.0", true, false},
		{"v1.2.0", "1.2.0", false, false},
		{"1.2.0", "1.1.9", false, false},
		{"1.0.0-rc.1", "1.0.0", true, false},
		{"not-a-version", "1.0.0", false, true},
		{"1.0.0", "latest", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			got, err := IsNewer(tt.current, tt.latest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatUpdateNotification(t *testing.T) {
	tests := []struct {
		name     string
		result   *Result
		expected string
	}{
		{name: "nil result", result: nil, expected: ""},
		{name: "no update available", result: &Result{CurrentVersion: "1.0.0"}, expected: ""},
		{
			name:     "update available",
			result:   &Result{CurrentVersion: "1.0.0", LatestVersion: "1.1.0", Available: true},
			expected: "Update available: v1.0.0 -> v1.1.0 (run 'ruffle-manager self-update' to upgrade)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUpdateNotification(tt.result))
		})
	}
}

func TestIsDev(t *testing.T) {
	assert.True(t, IsDev(""))
	assert.True(t, IsDev("dev"))
	assert.False(t, IsDev("1.0.0"))
}

func TestGetPlatform(t *testing.T) {
	assert.Contains(t, GetPlatform(), "/")
}
