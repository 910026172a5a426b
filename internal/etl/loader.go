package etl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ── Loader ─────────────────────────────────────────────────
// Enumerates a directory and runs the matching reader on every file.

// LoadResult holds the tables that parsed and the files that did not,
// both in directory enumeration order.
type LoadResult struct {
	Tables []*Table
	Errors []LoadError
}

// loadOutcome is the tagged result of a single load attempt.
type loadOutcome struct {
	table *Table
	err   *LoadError
}

// Load reads every regular file directly inside dir whose extension has a
// registered reader. A failing file becomes a LoadError and the scan goes
// on. Only an unreadable dir is returned as an error.
func Load(ctx context.Context, dir string, reporter Reporter) (*LoadResult, error) {
	reporter = reporterOrNop(reporter)
	reporter.Emit(ctx, EventLoadStarted, Fields{"dir": dir})

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceDir, dir, err)
	}

	result := &LoadResult{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		reader, ok := ReaderFor(entry.Name())
		if !ok {
			continue
		}

		out := loadOne(ctx, reader, dir, entry.Name())
		if out.err != nil {
			result.Errors = append(result.Errors, *out.err)
			reporter.Emit(ctx, EventFileFailed, Fields{"file": entry.Name(), "error": out.err.Err.Error()})
			continue
		}
		result.Tables = append(result.Tables, out.table)
		reporter.Emit(ctx, EventFileLoaded, Fields{
			"file":    entry.Name(),
			"format":  reader.Spec().Type,
			"rows":    out.table.Len(),
			"columns": len(out.table.Schema.Fields),
		})
	}
	return result, nil
}

func loadOne(ctx context.Context, reader Reader, dir, name string) loadOutcome {
	table, err := reader.Read(ctx, filepath.Join(dir, name))
	if err == nil && table == nil {
		err = fmt.Errorf("reader %s returned no table", reader.Spec().Type)
	}
	if err != nil {
		return loadOutcome{err: &LoadError{Source: name, Err: err}}
	}
	table.Source = name
	if table.Schema == nil {
		table.Schema = &Schema{}
	}
	return loadOutcome{table: table}
}
