package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/firstrun"
	"github.com/Didstopia/ruffle-manager/internal/overrides"
	"github.com/Didstopia/ruffle-manager/internal/terminal"
)

var (
	firstRunChoice string
	firstRunReset  bool
)

var firstRunCmd = &cobra.Command{
	Use:   "first-run",
	Short: "Redirect legacy Flash executables to Ruffle",
	Long: `Ask once whether the launcher's legacy Flash executables should be
redirected to Ruffle Standalone or Ruffle Web, and add the matching app path
overrides to the launcher preferences. Existing overrides are kept.

The question is only asked once. Without a terminal, pass --choice.

Examples:
  ruffle-manager first-run
  ruffle-manager first-run --choice standalone
  ruffle-manager first-run --reset --choice web`,
	Args: cobra.NoArgs,
	RunE: runFirstRun,
}

func init() {
	firstRunCmd.Flags().StringVar(&firstRunChoice, "choice", "", "Answer without prompting: standalone, web, none or cancel")
	firstRunCmd.Flags().BoolVar(&firstRunReset, "reset", false, "Ask again even if the question was answered before")

	rootCmd.AddCommand(firstRunCmd)
}

func runFirstRun(cmd *cobra.Command, args []string) error {
	var preset firstrun.Choice
	if firstRunChoice != "" {
		var err error
		if preset, err = firstrun.ParseChoice(firstRunChoice); err != nil {
			return err
		}
	}

	cfg := currentConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if firstRunReset {
		if err := store.SetFirstRunComplete(false); err != nil {
			return err
		}
	}

	runner := &firstrun.Runner{
		Flags:       store,
		Prompter:    firstrun.HuhPrompter{},
		Register:    overrides.Register,
		PrefsPath:   cfg.PreferencesPath(),
		Interactive: terminal.IsInteractive(),
		Log:         log,
	}

	result, err := runner.Run(cmd.Context(), preset)
	if err != nil {
		return err
	}
	printFirstRunResult(cmd.OutOrStdout(), result, runner.PrefsPath)
	return nil
}

func printFirstRunResult(w io.Writer, result *firstrun.Result, prefsPath string) {
	switch {
	case result.AlreadyComplete:
		fmt.Fprintln(w, "First run already completed (use --reset to ask again)")
	case result.Skipped:
		fmt.Fprintln(w, "No terminal available; run again with --choice to answer")
	case result.Choice == firstrun.ChoiceNone || result.Choice == firstrun.ChoiceCancel:
		fmt.Fprintln(w, "No app path overrides added")
	default:
		fmt.Fprintf(w, "Added %d app path override(s) to %s\n", len(result.Added), prefsPath)
		for _, path := range result.Added {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
}
