package etl

import (
	"context"
	"fmt"
)

const (
	// TimestampColumn is the canonical timestamp column name.
	TimestampColumn = "datetime"
	// AltTimestampColumn is the upper-case spelling some exports use.
	AltTimestampColumn = "DATETIME"
)

// NormalizeOptions tunes timestamp coercion.
type NormalizeOptions struct {
	// EpochUnit is the unit of numeric timestamps. Empty means nanoseconds.
	EpochUnit EpochUnit
}

// NormalizeStats counts rows through normalization.
type NormalizeStats struct {
	InputRows   int `json:"inputRows"`
	DroppedRows int `json:"droppedRows"`
	OutputRows  int `json:"outputRows"`
}

// Normalize merges tables into one, canonicalizes the timestamp column,
// coerces it to UTC, drops rows whose timestamp cannot be coerced and sorts
// the rest stably by timestamp.
//
// An empty tables slice is reported as a warning and yields a nil table
// with a nil error. A merged schema without "datetime" or "DATETIME"
// returns ErrMissingTimestampColumn.
func Normalize(ctx context.Context, tables []*Table, opts NormalizeOptions, reporter Reporter) (*Table, *NormalizeStats, error) {
	reporter = reporterOrNop(reporter)
	stats := &NormalizeStats{}

	if len(tables) == 0 {
		reporter.Emit(ctx, EventNoInput, Fields{"reason": ErrNoInput.Error()})
		return nil, stats, nil
	}

	merged := Merge(tables)
	stats.InputRows = merged.Len()

	if err := canonicalizeSchema(merged.Schema); err != nil {
		return nil, stats, err
	}

	chain := []Transformer{
		&RenameTransform{From: AltTimestampColumn, To: TimestampColumn},
		&TimestampTransform{Field: TimestampColumn, Unit: opts.EpochUnit},
	}
	kept := merged.Records[:0]
	for _, r := range merged.Records {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if out, keep := ApplyTransformers(r, chain); keep {
			kept = append(kept, out)
		}
	}
	merged.Records = kept

	stats.OutputRows = len(kept)
	stats.DroppedRows = stats.InputRows - stats.OutputRows
	if stats.DroppedRows > 0 {
		reporter.Emit(ctx, EventRowsDropped, Fields{"dropped": stats.DroppedRows, "column": TimestampColumn})
	}

	SortByTime(merged.Records, TimestampColumn)

	reporter.Emit(ctx, EventNormalized, Fields{"events": stats.OutputRows, "dropped": stats.DroppedRows})
	return merged, stats, nil
}

// canonicalizeSchema renames DATETIME to datetime in the schema. When both
// exist they collapse into one field at the earlier position.
func canonicalizeSchema(s *Schema) error {
	alt, canon := s.Index(AltTimestampColumn), s.Index(TimestampColumn)
	switch {
	case alt < 0 && canon < 0:
		return fmt.Errorf("%w: expected %q or %q among columns %v",
			ErrMissingTimestampColumn, TimestampColumn, AltTimestampColumn, s.FieldNames())
	case alt >= 0 && canon < 0:
		s.Fields[alt].Name = TimestampColumn
		s.Fields[alt].Type = TypeDatetime
	case alt >= 0 && canon >= 0:
		keep, drop := min(alt, canon), max(alt, canon)
		s.Fields[keep] = Field{Name: TimestampColumn, Type: TypeDatetime}
		s.Fields = append(s.Fields[:drop], s.Fields[drop+1:]...)
	default:
		s.Fields[canon].Type = TypeDatetime
	}
	return nil
}
