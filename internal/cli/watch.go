package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/config"
	"github.com/Didstopia/ruffle-manager/internal/schedule"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the update check on a schedule",
	Long: `Run the startup check immediately and then on a cron schedule until
interrupted.

Schedules use five-field cron expressions or descriptors such as @hourly and
@every 6h.

Examples:
  ruffle-manager watch
  ruffle-manager watch --schedule "0 */2 * * *"`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return schedule.ValidateSpec(watchSchedule)
	},
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchedule, "schedule", "s", config.DefaultConfig().Schedule, "Cron schedule for checks")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), currentConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler, err := schedule.New(watchSchedule, func(ctx context.Context) error {
		_, err := a.updater.CheckAll(ctx)
		return err
	}, log)
	if err != nil {
		return err
	}

	log.WithField("schedule", watchSchedule).Info("Watching for player releases")
	return scheduler.Run(cmd.Context())
}
