package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventetl/internal/dbclient"
)

// ── Engine ─────────────────────────────────────────────────
// Orchestrates: Load → Normalize → Destination.Write.

// Run statuses.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty" // nothing loaded or nothing left to write
	StatusError   = "error"
)

// SyncResult is the outcome of one pipeline run.
type SyncResult struct {
	RunID       string        `json:"runId"`
	Status      string        `json:"status"`
	FilesLoaded int           `json:"filesLoaded"`
	FilesFailed int           `json:"filesFailed"`
	LoadErrors  []LoadError   `json:"-"`
	RowsRead    int           `json:"rowsRead"`
	RowsDropped int           `json:"rowsDropped"`
	RowsWritten int           `json:"rowsWritten"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// Engine runs the pipeline over one source directory.
type Engine struct {
	Dir      string
	Driver   dbclient.Driver // empty means sqlite
	Options  NormalizeOptions
	Reporter Reporter

	// Dest builds the destination for a run. Nil means a StoreWriter for
	// Driver at the run's location.
	Dest func(location string) Destination
}

// NewEngine returns an engine reading dir and writing sqlite stores.
func NewEngine(dir string, opts NormalizeOptions, reporter Reporter) *Engine {
	return &Engine{Dir: dir, Driver: dbclient.DriverSQLite, Options: opts, Reporter: reporter}
}

// Run loads the directory, normalizes what loaded and replaces tableName
// at location. RowsWritten is 0 whenever nothing was written. Load and row
// failures are absorbed; a missing timestamp column or a storage failure
// is returned as an error.
func (e *Engine) Run(ctx context.Context, location, tableName string) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{RunID: uuid.New().String()}
	ctx = WithRunID(ctx, result.RunID)
	reporter := reporterOrNop(e.Reporter)

	fail := func(err error) (*SyncResult, error) {
		result.Status = StatusError
		result.Error = err.Error()
		result.RowsWritten = 0
		result.Duration = time.Since(start)
		reporter.Emit(ctx, EventRunFailed, Fields{"error": err.Error()})
		return result, err
	}

	// 1. Load every recognized file.
	loaded, err := Load(ctx, e.Dir, reporter)
	if err != nil {
		return fail(err)
	}
	result.FilesLoaded = len(loaded.Tables)
	result.FilesFailed = len(loaded.Errors)
	result.LoadErrors = loaded.Errors

	// 2. Merge and normalize.
	merged, stats, err := Normalize(ctx, loaded.Tables, e.Options, reporter)
	result.RowsRead = stats.InputRows
	result.RowsDropped = stats.DroppedRows
	if err != nil {
		return fail(fmt.Errorf("normalize: %w", err))
	}

	// 3. Write.
	written, err := e.destination(location).Write(ctx, merged, tableName)
	switch {
	case errors.Is(err, ErrNoData):
		result.Status = StatusEmpty
	case err != nil:
		return fail(fmt.Errorf("materialize: %w", err))
	default:
		result.Status = StatusSuccess
	}

	result.RowsWritten = written
	result.Duration = time.Since(start)
	reporter.Emit(ctx, EventRunCompleted, Fields{
		"status":  result.Status,
		"files":   result.FilesLoaded,
		"failed":  result.FilesFailed,
		"written": result.RowsWritten,
		"elapsed": result.Duration.String(),
	})
	return result, nil
}

func (e *Engine) destination(location string) Destination {
	if e.Dest != nil {
		return e.Dest(location)
	}
	return NewStoreWriter(e.Driver, location, e.Reporter)
}
