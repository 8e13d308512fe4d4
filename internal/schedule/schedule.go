// Package schedule runs update checks on a cron schedule
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Didstopia/ruffle-manager/internal/report"
)

// CheckFunc is the function run on every tick
type CheckFunc func(ctx context.Context) error

// Scheduler manages cron-based check execution
type Scheduler struct {
	spec    string
	checkFn CheckFunc
	log     logrus.FieldLogger
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec validates a cron expression
func ValidateSpec(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a new Scheduler. Returns an error if the cron spec is invalid.
func New(spec string, checkFn CheckFunc, log logrus.FieldLogger) (*Scheduler, error) {
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	if log == nil {
		log = report.DiscardLogger()
	}
	return &Scheduler{
		spec:    spec,
		checkFn: checkFn,
		log:     log.WithField("schedule", spec),
	}, nil
}

// Run executes an immediate check, then starts the cron loop.
// It blocks until the context is cancelled.
// Check errors are logged but do not stop the scheduler.
// Overlapping runs are skipped via cron.SkipIfStillRunning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.run(ctx, "Running immediate check")

	if ctx.Err() != nil {
		return nil
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)

	if _, err := c.AddFunc(s.spec, func() { s.run(ctx, "Running scheduled check") }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.Start()
	s.log.Info("Scheduler started")

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	s.log.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context, msg string) {
	s.log.Debug(msg)
	if err := s.checkFn(ctx); err != nil {
		s.log.WithError(err).Warn("Check failed")
	}
}
