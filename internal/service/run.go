package service

import (
	"context"

	"eventetl/internal/etl"
	_ "eventetl/internal/etl/sources" // registers the csv and parquet readers
)

// Run loads every recognized file in dir, normalizes the events and
// replaces tableName in the SQLite database at dbPath. It returns the
// number of rows written, which is 0 when nothing was loaded.
func Run(ctx context.Context, dir, dbPath, tableName string) (int, error) {
	engine := etl.NewEngine(dir, etl.NormalizeOptions{}, etl.NewLogReporter(nil))
	result, err := engine.Run(ctx, dbPath, tableName)
	if err != nil {
		return 0, err
	}
	return result.RowsWritten, nil
}
