package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/auth"
	"github.com/Didstopia/ruffle-manager/internal/selfupdate"
)

var checkOnly bool

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Check for and install ruffle-manager updates",
	Long: `Check for new versions of ruffle-manager and replace the running binary
with the latest release.

Use --check to only check for updates without installing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if selfupdate.IsDev(Version) {
			fmt.Fprintln(out, "You're running a development build. Self-update is disabled.")
			fmt.Fprintf(out, "To update, download a release from:\n  https://github.com/%s/%s/releases\n",
				selfupdate.RepoOwner, selfupdate.RepoName)
			return nil
		}

		tokenResult, _ := auth.GetToken(ctx, token, auth.DefaultHostname)
		updater := selfupdate.NewUpdater(Version, tokenResult.Token)

		fmt.Fprintln(out, "Checking for updates...")
		result, err := updater.CheckForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}

		if !result.Available {
			fmt.Fprintf(out, "You're running the latest version (v%s)\n", result.CurrentVersion)
			return nil
		}

		fmt.Fprintln(out, selfupdate.FormatUpdateNotification(result))
		if result.ReleaseURL != "" {
			fmt.Fprintf(out, "Release: %s\n", result.ReleaseURL)
		}

		if checkOnly {
			return nil
		}

		fmt.Fprintf(out, "\nDownloading and installing update for %s...\n", selfupdate.GetPlatform())
		updateResult, err := updater.Update(ctx)
		if err != nil {
			return fmt.Errorf("failed to update: %w", err)
		}

		fmt.Fprintf(out, "\nSuccessfully updated to v%s!\n", updateResult.LatestVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selfUpdateCmd)

	selfUpdateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
}
