// Package firstrun asks once which player build should take over the
// launcher's legacy Flash executables
package firstrun

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"

	"github.com/Didstopia/ruffle-manager/internal/platform"
	"github.com/Didstopia/ruffle-manager/internal/report"
)

// Choice is the answer to the first-run question
type Choice string

const (
	ChoiceStandalone Choice = "standalone"
	ChoiceWeb        Choice = "web"
	ChoiceNone       Choice = "none"
	ChoiceCancel     Choice = "cancel"
)

// ParseChoice parses a choice name
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToLower(strings.TrimSpace(s))); c {
	case ChoiceStandalone, ChoiceWeb, ChoiceNone, ChoiceCancel:
		return c, nil
	default:
		return "", fmt.Errorf("invalid choice %q (expected standalone, web, none or cancel)", s)
	}
}

// Target returns the player target selected by the choice, if any
func (c Choice) Target() (platform.Target, bool) {
	switch c {
	case ChoiceStandalone:
		return platform.Standalone, true
	case ChoiceWeb:
		return platform.Web, true
	default:
		return "", false
	}
}

// Prompter asks the first-run question
type Prompter interface {
	Ask(ctx context.Context) (Choice, error)
}

// Flags stores whether the first run has been handled
type Flags interface {
	IsFirstRunComplete() bool
	SetFirstRunComplete(complete bool) error
}

// RegisterFunc writes overrides for target into the preferences file
type RegisterFunc func(prefsPath string, target platform.Target) ([]string, error)

// Result describes what the first run did
type Result struct {
	Choice          Choice
	Added           []string
	AlreadyComplete bool
	Skipped         bool
}

// Runner performs the first-run flow
type Runner struct {
	Flags       Flags
	Prompter    Prompter
	Register    RegisterFunc
	PrefsPath   string
	Interactive bool
	Log         logrus.FieldLogger
}

// Run asks the question unless it has been answered before. A preset
// choice bypasses the prompt. Without a terminal and without a preset
// nothing happens and the flag stays unset, so the question is asked on
// the next interactive run.
func (r *Runner) Run(ctx context.Context, preset Choice) (*Result, error) {
	log := r.Log
	if log == nil {
		log = report.DiscardLogger()
	}

	if r.Flags.IsFirstRunComplete() {
		return &Result{AlreadyComplete: true}, nil
	}

	choice := preset
	if choice == "" {
		if !r.Interactive || r.Prompter == nil {
			log.Debug("Not interactive, deferring first-run prompt")
			return &Result{Skipped: true}, nil
		}
		var err error
		choice, err = r.Prompter.Ask(ctx)
		if err != nil {
			return nil, fmt.Errorf("first-run prompt failed: %w", err)
		}
	}

	result := &Result{Choice: choice}
	if target, ok := choice.Target(); ok {
		added, err := r.Register(r.PrefsPath, target)
		if err != nil {
			return nil, fmt.Errorf("failed to register app path overrides: %w", err)
		}
		result.Added = added
		log.WithFields(logrus.Fields{"target": target, "added": len(added)}).Info("Registered app path overrides")
	}

	if err := r.Flags.SetFirstRunComplete(true); err != nil {
		return nil, fmt.Errorf("failed to save first-run flag: %w", err)
	}
	return result, nil
}

// HuhPrompter asks the question with a terminal select
type HuhPrompter struct{}

// Ask implements Prompter. Aborting the form counts as Cancel.
func (HuhPrompter) Ask(ctx context.Context) (Choice, error) {
	choice := ChoiceCancel
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title("First Run Ruffle").
				Description("Looks like you haven't run ruffle-manager before.\n" +
					"Would you like to add app overrides from Flash to Ruffle Standalone or Web?").
				Options(
					huh.NewOption("Standalone", ChoiceStandalone),
					huh.NewOption("Web", ChoiceWeb),
					huh.NewOption("None", ChoiceNone),
					huh.NewOption("Cancel", ChoiceCancel),
				).
				Value(&choice),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ChoiceCancel, nil
		}
		return "", err
	}
	return choice, nil
}
