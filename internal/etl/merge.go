package etl

import (
	"fmt"
	"maps"
	"strconv"
	"time"
)

// Merge concatenates tables in order into a fresh table. The schema is the
// union of input fields in first-appearance order; rows from a table that
// lacks a field hold null there. Tables without a schema are skipped.
// Timestamp columns keep their raw values for per-value coercion later.
// Inputs are not modified.
func Merge(tables []*Table) *Table {
	merged := &Table{Schema: &Schema{}}
	index := map[string]int{}

	total := 0
	for _, t := range tables {
		if t == nil || t.Schema == nil {
			continue
		}
		total += len(t.Records)
		for _, f := range t.Schema.Fields {
			i, ok := index[f.Name]
			if !ok {
				index[f.Name] = len(merged.Schema.Fields)
				merged.Schema.Fields = append(merged.Schema.Fields, f)
				continue
			}
			merged.Schema.Fields[i].Type = unifyTypes(merged.Schema.Fields[i].Type, f.Type)
		}
	}

	merged.Records = make([]Record, 0, total)
	for _, t := range tables {
		if t == nil || t.Schema == nil {
			continue
		}
		for _, r := range t.Records {
			merged.Records = append(merged.Records, Record{Data: maps.Clone(r.Data)})
		}
	}

	for _, f := range merged.Schema.Fields {
		if isTimestampColumn(f.Name) {
			continue
		}
		convertColumn(merged.Records, f)
	}
	return merged
}

func isTimestampColumn(name string) bool {
	return name == TimestampColumn || name == AltTimestampColumn
}

// unifyTypes returns the type a column takes when two sources disagree.
func unifyTypes(a, b FieldType) FieldType {
	switch {
	case a == b:
		return a
	case a == TypeNull:
		return b
	case b == TypeNull:
		return a
	case (a == TypeInteger && b == TypeNumber) || (a == TypeNumber && b == TypeInteger):
		return TypeNumber
	default:
		return TypeText
	}
}

// convertColumn brings every non-null value of f to f's unified type.
func convertColumn(records []Record, f Field) {
	if f.Type != TypeNumber && f.Type != TypeText {
		return
	}
	for _, r := range records {
		v, ok := r.Data[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case TypeNumber:
			if n, ok := v.(int64); ok {
				r.Data[f.Name] = float64(n)
			}
		case TypeText:
			r.Data[f.Name] = valueText(v)
		}
	}
}

func valueText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
