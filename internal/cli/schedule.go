package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"eventetl/internal/config"
	"eventetl/internal/etl"
	"eventetl/internal/service"
)

const shutdownGrace = 30 * time.Second

var scheduleFlags struct {
	cron string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Run the pipeline on every tick of a five-field cron expression
(--cron, EVENTETL_SCHEDULE or "schedule" in the project file) until
interrupted. A tick that arrives while a run is in progress is skipped.`,
	Example: `  eventetl schedule --cron "*/15 * * * *"`,
	Args:    cobra.NoArgs,
	RunE:    runSchedule,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline whenever the source directory changes",
	Long: `Run the pipeline once, then again each time a CSV or Parquet file in
the source directory is created, written, removed or renamed. Bursts of
changes are debounced into one run.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleFlags.cron, "cron", "", "Cron expression (minute hour dom month dow)")
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(watchCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	expr := cfg.Schedule
	if scheduleFlags.cron != "" {
		expr = scheduleFlags.cron
	}
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w: no schedule: set --cron, EVENTETL_SCHEDULE or schedule in %s",
			etl.ErrInvalidConfig, config.ConfigFileName)
	}

	svc, err := newIngestService(cmd, cfg)
	if err != nil {
		return err
	}
	if err := svc.StartSchedule(cmd.Context(), expr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scheduled %q for table %s\n", expr, cfg.Table)
	return serveUntilDone(cmd.Context(), svc)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newIngestService(cmd, cfg)
	if err != nil {
		return err
	}

	if _, err := svc.RunOnce(cmd.Context()); err != nil {
		return err
	}
	if err := svc.StartWatch(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for table %s\n", cfg.Dir, cfg.Table)
	return serveUntilDone(cmd.Context(), svc)
}

// serveUntilDone blocks until ctx is cancelled, then stops the triggers
// and waits for an in-flight run to finish.
func serveUntilDone(ctx context.Context, svc *service.IngestService) error {
	<-ctx.Done()
	svc.Stop()

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	svc.WaitRunning(waitCtx)
	return nil
}
