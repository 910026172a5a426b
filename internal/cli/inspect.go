package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eventetl/internal/dbclient"
	"eventetl/internal/etl"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the target table's columns and row count",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	driver, err := dbclient.ParseDriver(cfg.Driver)
	if err != nil {
		return fmt.Errorf("%w: %v", etl.ErrInvalidConfig, err)
	}

	conn, err := dbclient.NewConnector(driver, cfg.DB)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer conn.Close()

	ctx := cmd.Context()
	cols, err := conn.DescribeTable(ctx, cfg.Table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	n, err := conn.CountRows(ctx, cfg.Table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "table %s (%s): %d rows\n\n", cfg.Table, driver, n)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Type)
	}
	return tw.Flush()
}
