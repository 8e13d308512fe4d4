package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/auth"
	"github.com/Didstopia/ruffle-manager/internal/github"
	"github.com/Didstopia/ruffle-manager/internal/platform"
	"github.com/Didstopia/ruffle-manager/internal/state"
)

var statusHistory int

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
	colorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}

	titleStyle   = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = cellStyle.Foreground(colorSuccess)
	warningStyle = cellStyle.Foreground(colorWarning)
	errorStyle   = cellStyle.Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed players and recent installs",
	Long: `Show the installed release of each target, whether its directory exists,
recent install attempts and where the GitHub token comes from.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusHistory, "history", "n", 5, "Number of install attempts to show")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	renderStatus(out, store, cfg.InstallRoot, statusHistory)

	if f, err := github.ParseFeed(cfg.Feed); err == nil {
		result := auth.NewStorage().Resolve(cfg.Token, auth.HostnameFromBaseURL(f.BaseURL))
		fmt.Fprintf(out, "\nFeed:  %s\n", f)
		fmt.Fprintf(out, "Token: %s\n", auth.FormatTokenSource(result.Source))
	}
	return nil
}

// renderStatus writes the target and history tables for store
func renderStatus(w io.Writer, store state.Store, root string, history int) {
	rows := make([][]string, 0, len(platform.Targets))
	for _, target := range platform.Targets {
		rows = append(rows, targetRow(store, target, target.Dir(root)))
	}

	targets := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("TARGET", "DIRECTORY", "ASSET", "PUBLISHED", "INSTALLED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				switch rows[row][col] {
				case "not installed":
					return warningStyle
				case "directory missing":
					return errorStyle
				}
				return successStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, titleStyle.Render("Players"))
	fmt.Fprintln(w, targets.Render())

	if history <= 0 {
		return
	}

	records := store.GetRecentHistory(history)
	fmt.Fprintln(w, titleStyle.Render("Recent installs"))
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No installs recorded yet"))
		return
	}

	historyRows := make([][]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		result := "ok"
		if !r.Succeeded() {
			result = r.Error
		}
		historyRows = append(historyRows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Target,
			r.Asset,
			result,
		})
	}

	recent := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("STARTED", "TARGET", "ASSET", "RESULT").
		Rows(historyRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 {
				if historyRows[row][col] == "ok" {
					return successStyle
				}
				return errorStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, recent.Render())
}

func targetRow(store state.Store, target platform.Target, dir string) []string {
	row := []string{target.String(), dir, "not installed", "-", "-"}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		row[2] = "directory missing"
		return row
	}

	inst := store.Installation(target)
	if inst == nil {
		return row
	}
	row[2] = inst.Asset
	if published, ok := store.InstalledVersion(target); ok {
		row[3] = published.Local().Format(time.DateTime)
	}
	if !inst.InstalledAt.IsZero() {
		row[4] = inst.InstalledAt.Local().Format(time.DateTime)
	}
	return row
}
