package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/selfupdate"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build date of ruffle-manager.`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ruffle-manager %s\n", Version)
	fmt.Fprintf(out, "  commit:   %s\n", Commit)
	fmt.Fprintf(out, "  built:    %s\n", BuildDate)
	fmt.Fprintf(out, "  platform: %s\n", selfupdate.GetPlatform())
}

// SetVersionInfo sets the version information (called from main)
func SetVersionInfo(version, commit, buildDate string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if buildDate != "" {
		BuildDate = buildDate
	}
}
