// Package updater decides when a target needs a new player build and runs
// the install
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
	"github.com/Didstopia/ruffle-manager/internal/install"
	"github.com/Didstopia/ruffle-manager/internal/platform"
	"github.com/Didstopia/ruffle-manager/internal/release"
	"github.com/Didstopia/ruffle-manager/internal/report"
	"github.com/Didstopia/ruffle-manager/internal/state"
)

// Resolver finds the latest artifact matching a pattern
type Resolver interface {
	Resolve(ctx context.Context, pattern *regexp.Regexp) (*release.Artifact, bool, error)
}

// Installer installs an artifact into a directory
type Installer interface {
	Install(ctx context.Context, dir string, artifact *release.Artifact, progress install.ProgressFunc) (*install.Result, error)
}

// Ledger persists installed versions and install history
type Ledger interface {
	InstalledVersion(target platform.Target) (time.Time, bool)
	SetInstalled(target platform.Target, asset string, publishedAt time.Time) error
	AddInstallRecord(record *state.InstallRecord) error
}

// Options configures an Updater
type Options struct {
	// Root is the launcher installation root the target directories live under
	Root string
	// LockDir holds the per-target lock files. Empty disables cross-process
	// locking.
	LockDir string
	// Platform selects the standalone asset. Defaults to platform.Current().
	Platform *platform.Platform
	Log      logrus.FieldLogger
}

// Outcome is the result of processing one target
type Outcome struct {
	Target    platform.Target
	Artifact  *release.Artifact
	Installed bool
	UpToDate  bool
	Result    *install.Result
	Err       error
}

// Updater coordinates the resolver, installer and ledger
type Updater struct {
	resolver  Resolver
	installer Installer
	ledger    Ledger
	platform  platform.Platform
	root      string
	lockDir   string
	log       logrus.FieldLogger

	locksMu sync.Mutex
	locks   map[platform.Target]*sync.Mutex
}

// New creates an updater
func New(resolver Resolver, installer Installer, ledger Ledger, opts Options) *Updater {
	p := platform.Current()
	if opts.Platform != nil {
		p = *opts.Platform
	}
	log := opts.Log
	if log == nil {
		log = report.DiscardLogger()
	}

	locks := make(map[platform.Target]*sync.Mutex, len(platform.Targets))
	for _, t := range platform.Targets {
		locks[t] = &sync.Mutex{}
	}

	return &Updater{
		resolver:  resolver,
		installer: installer,
		ledger:    ledger,
		platform:  p,
		root:      opts.Root,
		lockDir:   opts.LockDir,
		log:       log,
		locks:     locks,
	}
}

// CheckAll runs the startup check for every target in parallel. Failures
// are swallowed and only reach the debug log, with the exception of an
// unsupported platform which is returned.
func (u *Updater) CheckAll(ctx context.Context) ([]*Outcome, error) {
	sink := &report.Silent{Log: u.log}
	outcomes := make([]*Outcome, len(platform.Targets))

	// A plain group: one target failing must not cancel the other
	var g errgroup.Group
	for i, target := range platform.Targets {
		i, target := i, target
		g.Go(func() error {
			outcome := u.run(ctx, target, false, sink, nil)
			outcomes[i] = outcome
			if errors.Is(outcome.Err, rerrors.ErrUnsupportedPlatform) {
				u.log.WithField("target", target).WithError(outcome.Err).Error("Update check unavailable")
				return outcome.Err
			}
			if outcome.Err != nil {
				sink.Error(target.String(), outcome.Err)
			}
			return nil
		})
	}

	err := g.Wait()
	return outcomes, err
}

// Check runs the startup check for a single target
func (u *Updater) Check(ctx context.Context, target platform.Target, sink report.Sink) *Outcome {
	if sink == nil {
		sink = &report.Silent{Log: u.log}
	}
	return u.run(ctx, target, false, sink, nil)
}

// Download installs the latest artifact for target regardless of the
// installed version. Every error is reported to sink and returned.
func (u *Updater) Download(ctx context.Context, target platform.Target, sink report.Sink, progress install.ProgressFunc) (*Outcome, error) {
	if sink == nil {
		sink = report.NewVisible(os.Stdout, u.log)
	}
	outcome := u.run(ctx, target, true, sink, progress)
	if outcome.Err != nil {
		sink.Error(target.String(), outcome.Err)
		return outcome, outcome.Err
	}
	return outcome, nil
}

// run performs resolve, staleness check and install for one target
func (u *Updater) run(ctx context.Context, target platform.Target, force bool, sink report.Sink, progress install.ProgressFunc) *Outcome {
	outcome := &Outcome{Target: target}
	log := u.log.WithFields(logrus.Fields{"target": target, "forced": force})

	pattern, err := u.platform.Pattern(target)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	unlock, err := u.acquire(target)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	defer unlock()

	sink.Status(target.String(), "Checking for updates")
	artifact, found, err := u.resolver.Resolve(ctx, pattern)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if !found {
		outcome.Err = fmt.Errorf("%w: no asset matching %s", rerrors.ErrAssetNotFound, pattern)
		return outcome
	}
	outcome.Artifact = artifact

	dir := target.Dir(u.root)
	if !force {
		stale, reason := u.isStale(target, dir, artifact)
		if !stale {
			log.WithField("published_at", artifact.PublishedAt).Debug("Installed version is current")
			sink.Status(target.String(), "Up to date")
			outcome.UpToDate = true
			return outcome
		}
		log.WithField("reason", reason).Debug("Update required")
	}

	sink.Status(target.String(), fmt.Sprintf("Downloading %s", artifact.Name))
	record := state.NewInstallRecord(target, artifact.Name, artifact.PublishedAt)
	result, err := u.installer.Install(ctx, dir, artifact, progress)
	if result != nil {
		record.SHA256 = result.SHA256
	}
	record.Complete(err)
	if histErr := u.ledger.AddInstallRecord(record); histErr != nil {
		log.WithError(histErr).Warn("Failed to record install history")
	}
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = result

	if err := u.commit(target, artifact); err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Installed = true
	sink.Status(target.String(), fmt.Sprintf("Installed %s", artifact.Name))
	log.WithFields(logrus.Fields{
		"asset":   artifact.Name,
		"entries": result.Entries,
		"sha256":  result.SHA256,
	}).Debug("Player updated")
	return outcome
}

// isStale reports whether the target needs an install and why
func (u *Updater) isStale(target platform.Target, dir string, artifact *release.Artifact) (bool, string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return true, "directory missing"
	}
	installed, ok := u.ledger.InstalledVersion(target)
	if !ok {
		return true, "no installed version"
	}
	if artifact.PublishedAt.After(installed) {
		return true, "newer release"
	}
	return false, ""
}

// commit is the only place a version marker is written
func (u *Updater) commit(target platform.Target, artifact *release.Artifact) error {
	if err := u.ledger.SetInstalled(target, artifact.Name, artifact.PublishedAt); err != nil {
		return fmt.Errorf("failed to save installed version: %w", err)
	}
	return nil
}
