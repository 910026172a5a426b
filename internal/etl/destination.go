package etl

import (
	"context"
	"fmt"
	"strings"

	"eventetl/internal/dbclient"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes a normalized table into a target store,
// replacing any table of the same name.

// Destination writes tables to a target system.
type Destination interface {
	Write(ctx context.Context, table *Table, tableName string) (int, error)
}

// ── Store Destination ──────────────────────────────────────

// OpenFunc opens the target store. It is a field on StoreWriter so tests
// can substitute a failing or recording connector.
type OpenFunc func(driver dbclient.Driver, location string) (dbclient.Connector, error)

// StoreWriter implements Destination on a relational store. The store
// is opened per Write and closed before Write returns.
type StoreWriter struct {
	Driver   dbclient.Driver
	Location string
	Reporter Reporter
	Open     OpenFunc
}

// NewStoreWriter returns a writer for the store at location.
func NewStoreWriter(driver dbclient.Driver, location string, reporter Reporter) *StoreWriter {
	return &StoreWriter{Driver: driver, Location: location, Reporter: reporter}
}

// Write replaces tableName with the rows of table and returns the number
// of rows written. A nil or empty table is refused with ErrNoData before
// the store is opened.
func (w *StoreWriter) Write(ctx context.Context, table *Table, tableName string) (written int, err error) {
	reporter := reporterOrNop(w.Reporter)

	if table.Len() == 0 {
		reporter.Emit(ctx, EventNoData, Fields{"table": tableName})
		return 0, ErrNoData
	}
	if strings.TrimSpace(tableName) == "" {
		return 0, fmt.Errorf("%w: empty table name", ErrInvalidConfig)
	}

	open := w.Open
	if open == nil {
		open = dbclient.NewConnector
	}

	defer func() {
		if err != nil {
			reporter.Emit(ctx, EventWriteFailed, Fields{"table": tableName, "location": w.Location, "error": err.Error()})
		}
	}()

	conn, err := open(w.Driver, w.Location)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", ErrStorageWrite, w.Location, err)
	}
	defer conn.Close()

	columns, rows := tableRows(table)
	n, err := conn.ReplaceTable(ctx, tableName, columns, rows)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	reporter.Emit(ctx, EventWritten, Fields{"table": tableName, "location": w.Location, "records": n})
	return n, nil
}

// tableRows flattens records into positional rows in schema order.
func tableRows(t *Table) ([]dbclient.Column, [][]any) {
	columns := make([]dbclient.Column, len(t.Schema.Fields))
	for i, f := range t.Schema.Fields {
		columns[i] = dbclient.Column{Name: f.Name, Kind: columnKind(f.Type)}
	}
	rows := make([][]any, len(t.Records))
	for i, r := range t.Records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = r.Data[c.Name]
		}
		rows[i] = row
	}
	return columns, rows
}

// columnKind converts ETL field types to store column kinds.
func columnKind(t FieldType) dbclient.ColumnKind {
	switch t {
	case TypeInteger:
		return dbclient.KindInteger
	case TypeNumber:
		return dbclient.KindNumber
	case TypeBoolean:
		return dbclient.KindBoolean
	case TypeDatetime:
		return dbclient.KindDatetime
	case TypeNull:
		return dbclient.KindNull
	default:
		return dbclient.KindText
	}
}
