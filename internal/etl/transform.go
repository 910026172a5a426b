package etl

import (
	"slices"
	"time"
)

// ── Transformer ────────────────────────────────────────────
// Transformers modify records between merge and write.
// Each takes a record and returns a (possibly modified) record and
// whether to keep it.

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// ── Built-in Transforms ────────────────────────────────────

// RenameTransform moves the value of From into To. When the record
// already holds a non-null value under To, that value wins and From is
// discarded.
type RenameTransform struct {
	From string
	To   string
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Data[t.From]
	if !ok {
		return r, true
	}
	delete(r.Data, t.From)
	if cur := r.Data[t.To]; cur == nil {
		r.Data[t.To] = v
	}
	return r, true
}

// TimestampTransform coerces Field to a UTC time.Time and drops the
// record when the value cannot be coerced.
type TimestampTransform struct {
	Field string
	Unit  EpochUnit
}

func (t *TimestampTransform) Transform(r Record) (Record, bool) {
	ts, ok := CoerceTimestamp(r.Data[t.Field], t.Unit)
	if !ok {
		return r, false
	}
	r.Data[t.Field] = ts
	return r, true
}

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// ── Batch Transforms ──────────────────────────────────────

// SortByTime stably sorts records ascending by a time.Time field.
// Records with equal instants keep their relative order.
func SortByTime(records []Record, field string) {
	slices.SortStableFunc(records, func(a, b Record) int {
		ta, _ := a.Data[field].(time.Time)
		tb, _ := b.Data[field].(time.Time)
		return ta.Compare(tb)
	})
}
