// Package report provides the status and error sinks used by update runs.
// Background runs use Silent, user-triggered runs use Visible.
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
)

// Sink receives status lines and errors from an update run
type Sink interface {
	// Status reports progress for a target
	Status(target, msg string)

	// Error reports a failure for a target
	Error(target string, err error)
}

// DiscardLogger returns a logger that writes nowhere
func DiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Silent swallows everything. Messages still reach the debug log so that
// --verbose shows what a background check did.
type Silent struct {
	Log logrus.FieldLogger
}

// Status implements Sink
func (s *Silent) Status(target, msg string) {
	if s.Log != nil {
		s.Log.WithField("target", target).Debug(msg)
	}
}

// Error implements Sink
func (s *Silent) Error(target string, err error) {
	if s.Log != nil {
		s.Log.WithField("target", target).WithError(err).Debug("Update check failed")
	}
}

// Visible writes status lines to Out and logs errors
type Visible struct {
	mu  sync.Mutex
	out io.Writer
	log logrus.FieldLogger
}

// NewVisible creates a visible sink writing to out
func NewVisible(out io.Writer, log logrus.FieldLogger) *Visible {
	if log == nil {
		log = DiscardLogger()
	}
	return &Visible{out: out, log: log}
}

// Status implements Sink
func (v *Visible) Status(target, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s\n", target, msg)
}

// Error implements Sink
func (v *Visible) Error(target string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.log.WithField("target", target).WithError(err).Error("Update failed")
	fmt.Fprintf(v.out, "[%s] Failed: %v\n", target, err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintf(v.out, "[%s]   %s\n", target, hint)
	}
}

// Hint returns a short suggestion for errors the user can act on
func Hint(err error) string {
	switch {
	case rerrors.IsRateLimited(err):
		return "GitHub rate limit reached; run 'ruffle-manager login' or set GITHUB_TOKEN"
	case errors.Is(err, rerrors.ErrUnauthorized):
		return "the stored GitHub token was rejected; run 'ruffle-manager login' again"
	case rerrors.IsNotFound(err):
		return "check the 'feed' setting in ~/.ruffle-manager.yaml"
	case errors.Is(err, rerrors.ErrInstallInProgress):
		return "another download for this target is still running"
	case rerrors.IsInstallStage(err, rerrors.StageCleanup):
		return "close any running player instance and try again"
	default:
		return ""
	}
}
