package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"eventetl/internal/config"
	"eventetl/internal/dbclient"
	"eventetl/internal/etl"
	_ "eventetl/internal/etl/sources" // csv and parquet readers
	"eventetl/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "eventetl",
	Short: "Merge event files into one time-ordered table",
	Long: `eventetl loads every CSV and Parquet file in a directory, merges them
into one event table keyed by a UTC "datetime" column, drops rows whose
timestamp cannot be parsed, sorts by time and replaces a table in a
relational store with the result.

Exit Codes:
  0  - Success (an empty directory is a success with 0 rows)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  10 - Invalid configuration
  11 - Storage open or write failed
  12 - No datetime/DATETIME column in the input
  13 - Source directory unreadable`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// rootFlags holds the persistent flags shared by every command.
var rootFlags struct {
	dir       string
	db        string
	table     string
	driver    string
	config    string
	epochUnit string
	logLevel  string
	logFormat string
}

// Execute runs the root command.
// Interrupt and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dir, "dir", "", "Source directory of event files (default \"data\")")
	pf.StringVar(&rootFlags.db, "db", "", "SQLite path or DSN of the target store (default \"events.db\")")
	pf.StringVar(&rootFlags.table, "table", "", "Target table name (default \"events\")")
	pf.StringVar(&rootFlags.driver, "driver", "", "Store driver: sqlite, postgres or mysql (default \"sqlite\")")
	pf.StringVar(&rootFlags.config, "config", "", "Project file (default ./"+config.ConfigFileName+" if present)")
	pf.StringVar(&rootFlags.epochUnit, "epoch-unit", "", "Unit of numeric timestamps: s, ms, us or ns (default \"ns\")")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")
}

// resetRootFlags clears the persistent flags. Used by tests.
func resetRootFlags() {
	rootFlags.dir = ""
	rootFlags.db = ""
	rootFlags.table = ""
	rootFlags.driver = ""
	rootFlags.config = ""
	rootFlags.epochUnit = ""
	rootFlags.logLevel = ""
	rootFlags.logFormat = ""
}

// loadConfig resolves the effective configuration: flags over the
// environment over the project file over defaults. A .env file in the
// working directory is loaded first and never overrides set variables.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(rootFlags.config)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	for _, o := range []struct {
		flag  string
		field *string
	}{
		{rootFlags.dir, &cfg.Dir},
		{rootFlags.db, &cfg.DB},
		{rootFlags.table, &cfg.Table},
		{rootFlags.driver, &cfg.Driver},
		{rootFlags.epochUnit, &cfg.EpochUnit},
		{rootFlags.logLevel, &cfg.LogLevel},
		{rootFlags.logFormat, &cfg.LogFormat},
	} {
		if o.flag != "" {
			*o.field = o.flag
		}
	}
}

// newLogger builds the logger for cfg writing to w.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logging.New(cfg.SlogLevel(), cfg.LogFormat, w)
}

// newEngine builds the pipeline engine described by cfg. cfg must be
// validated.
func newEngine(cfg *config.Config, reporter etl.Reporter) (*etl.Engine, error) {
	driver, err := dbclient.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", etl.ErrInvalidConfig, err)
	}
	unit, err := etl.ParseEpochUnit(cfg.EpochUnit)
	if err != nil {
		return nil, err
	}
	engine := etl.NewEngine(cfg.Dir, etl.NormalizeOptions{EpochUnit: unit}, reporter)
	engine.Driver = driver
	return engine, nil
}
