package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/platform"
	"github.com/Didstopia/ruffle-manager/internal/report"
	"github.com/Didstopia/ruffle-manager/internal/terminal"
)

var noProgress bool

var downloadCmd = &cobra.Command{
	Use:   "download <web|standalone>",
	Short: "Download and install the latest player",
	Long: `Download the latest release for a target and install it, replacing the
current contents of the target directory. The installed version is ignored.

Targets:
  standalone  <install-root>/ruffle-standalone
  web         <install-root>/static/ruffle

Examples:
  ruffle-manager download standalone
  ruffle-manager download web --install-root /path/to/launcher`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{platform.Web.String(), platform.Standalone.String()},
	RunE:      runDownload,
}

func init() {
	downloadCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	target, err := platform.ParseTarget(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), currentConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	sink := report.NewVisible(out, log)
	bar := newProgressBar(out, !noProgress && !verbose && terminal.IsTerminal(os.Stdout), sink, target.String())
	defer bar.Finish()

	outcome, err := a.updater.Download(cmd.Context(), target, sink, bar.Handle)
	if err != nil {
		return reportedError{err}
	}

	if outcome.Result != nil {
		fmt.Fprintf(out, "[%s] %d entries in %s\n", target, outcome.Result.Entries, outcome.Result.Dir)
		log.WithField("sha256", outcome.Result.SHA256).Debug("Download verified")
	}
	return nil
}
