package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
)

func TestSilent(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	sink := &Silent{Log: log}

	sink.Status("web", "Downloading")
	sink.Error("web", errors.New("boom"))

	require.Len(t, hook.AllEntries(), 2)
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, entry.Level)
		assert.Equal(t, "web", entry.Data["target"])
	}
}

func TestSilent_NilLogger(t *testing.T) {
	sink := &Silent{}

	assert.NotPanics(t, func() {
		sink.Status("web", "Downloading")
		sink.Error("web", errors.New("boom"))
	})
}

func TestVisible(t *testing.T) {
	var out bytes.Buffer
	log, hook := test.NewNullLogger()
	sink := NewVisible(&out, log)

	sink.Status("standalone", "Found asset ruffle-linux.tar.gz")
	sink.Error("standalone", fmt.Errorf("resolve: %w", rerrors.ErrRateLimited))

	assert.Contains(t, out.String(), "[standalone] Found asset ruffle-linux.tar.gz\n")
	assert.Contains(t, out.String(), "[standalone] Failed: resolve: GitHub API rate limit exceeded")
	assert.Contains(t, out.String(), "ruffle-manager login")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"rate limited", rerrors.ErrRateLimited, "rate limit"},
		{"unauthorized", rerrors.ErrUnauthorized, "rejected"},
		{"not found", rerrors.ErrNotFound, "feed"},
		{"busy", rerrors.ErrInstallInProgress, "still running"},
		{"cleanup", rerrors.NewInstallError(rerrors.StageCleanup, "dir", errors.New("busy")), "close"},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := Hint(tt.err)
			if tt.contains == "" {
				assert.Empty(t, hint)
				return
			}
			assert.Contains(t, hint, tt.contains)
		})
	}
}
