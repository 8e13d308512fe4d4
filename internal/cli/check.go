package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check both players and install newer releases",
	Long: `Check the standalone player and the web build against the latest release
and install any target that is missing or older than the release.

Feed and install failures are only logged (use --verbose to see them); the
command fails only when this platform has no standalone build.

Examples:
  # Startup check, as run by the launcher
  ruffle-manager check --install-root /path/to/launcher`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), currentConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes, err := a.updater.CheckAll(cmd.Context())
	for _, outcome := range outcomes {
		if outcome != nil && outcome.Installed {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] Installed %s\n", outcome.Target, outcome.Artifact.Name)
		}
	}
	return err
}
