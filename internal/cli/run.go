package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventetl/internal/config"
	"eventetl/internal/etl"
	"eventetl/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: `Load every recognized file in the source directory, normalize the
events and replace the target table. Prints the number of rows written.`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newIngestService(cmd, cfg)
	if err != nil {
		return err
	}
	result, err := svc.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rows written to %s (%s)\n", result.RowsWritten, cfg.Table, result.Status)
	if result.FilesFailed > 0 || result.RowsDropped > 0 {
		fmt.Fprintf(out, "%d file(s) failed to load, %d row(s) dropped\n", result.FilesFailed, result.RowsDropped)
	}
	return nil
}

// newIngestService wires the engine and a log reporter on the command's
// stderr into an ingest service for cfg's target.
func newIngestService(cmd *cobra.Command, cfg *config.Config) (*service.IngestService, error) {
	reporter := etl.NewLogReporter(newLogger(cfg, cmd.ErrOrStderr()))
	engine, err := newEngine(cfg, reporter)
	if err != nil {
		return nil, err
	}
	return service.NewIngestService(engine, cfg.DB, cfg.Table, reporter), nil
}
