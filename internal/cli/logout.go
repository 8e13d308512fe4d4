package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/auth"
)

var logoutHostname string

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored GitHub token",
	Long: `Remove the GitHub token from your system keychain or config file.

Examples:
  ruffle-manager logout
  ruffle-manager logout --hostname github.mycompany.com`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().StringVar(&logoutHostname, "hostname", auth.DefaultHostname, "GitHub hostname (for GitHub Enterprise)")

	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	storage := auth.NewStorage()

	existingToken, _, err := storage.GetToken(logoutHostname)
	if err != nil || existingToken == "" {
		fmt.Fprintf(out, "Not logged in to %s\n", logoutHostname)
		return nil
	}

	if err := storage.DeleteToken(logoutHostname); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	fmt.Fprintf(out, "✓ Logged out of %s\n", logoutHostname)
	return nil
}
