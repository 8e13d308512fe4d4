package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/auth"
	"github.com/Didstopia/ruffle-manager/internal/github"
	"github.com/Didstopia/ruffle-manager/internal/terminal"
)

var loginWithToken bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token",
	Long: `Store a GitHub personal access token for release checks.

The release feed is public, so a token is optional. Anonymous requests are
limited to 60 per hour; a token lifts that limit. No scopes are required.

The token is validated against the API of the configured feed and stored in
the system keychain, or in ~/.ruffle-manager.yaml when no keychain is
available.

Examples:
  # Paste a token at the prompt
  ruffle-manager login

  # Read the token from stdin (for automation)
  echo "ghp_xxxx" | ruffle-manager login --with-token`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginWithToken, "with-token", false, "Read token from stdin")

	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	f, err := github.ParseFeed(currentConfig().Feed)
	if err != nil {
		return err
	}
	hostname := auth.HostnameFromBaseURL(f.BaseURL)

	var tok string
	if loginWithToken || !terminal.IsInteractive() {
		tok, err = readToken(cmd.InOrStdin())
	} else {
		tok, err = promptToken(hostname)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Validating token...")
	user, err := auth.ValidateToken(ctx, tok, f.BaseURL)
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}

	storage := auth.NewStorage()
	if err := storage.SetToken(hostname, tok); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Fprintf(out, "✓ Logged in to %s as %s\n", hostname, user.Login)
	fmt.Fprintf(out, "✓ Token stored in %s\n", storage.GetStorageLocation())
	return nil
}

// readToken reads the first line of r
func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no token provided")
	}
	return line, nil
}

func promptToken(hostname string) (string, error) {
	var tok string
	err := huh.NewInput().
		Title(fmt.Sprintf("Paste a personal access token for %s", hostname)).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("token cannot be empty")
			}
			return nil
		}).
		Value(&tok).
		Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tok), nil
}
