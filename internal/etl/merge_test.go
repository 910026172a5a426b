package etl_test

import (
	"testing"
	"time"

	"eventetl/internal/etl"
)

func TestMerge_UnionOfColumnsAndRows(t *testing.T) {
	a := table("a.csv", []etl.Field{lowerText, valInt},
		[]any{"2024-01-01", int64(1)},
		[]any{"2024-01-02", int64(2)},
	)
	b := table("b.csv", []etl.Field{{Name: "user", Type: etl.TypeText}, lowerText},
		[]any{"ann", "2024-01-03"},
	)
	empty := table("c.csv", []etl.Field{{Name: "extra", Type: etl.TypeNull}})

	merged := etl.Merge([]*etl.Table{a, b, empty})

	if merged.Len() != a.Len()+b.Len()+empty.Len() {
		t.Fatalf("rows = %d, want %d", merged.Len(), a.Len()+b.Len())
	}
	want := []string{"datetime", "val", "user", "extra"}
	got := merged.Schema.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields = %v, want %v", got, want)
		}
	}

	if v := merged.Records[2].Data["val"]; v != nil {
		t.Errorf("val for a row from b = %v, want null", v)
	}
	if v := merged.Records[0].Data["user"]; v != nil {
		t.Errorf("user for a row from a = %v, want null", v)
	}
	if merged.Source != "" {
		t.Errorf("merged source = %q, want empty", merged.Source)
	}
}

func TestMerge_UnifiesConflictingTypes(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	a := table("a.parquet", []etl.Field{
		{Name: "n", Type: etl.TypeInteger},
		{Name: "mixed", Type: etl.TypeDatetime},
		{Name: "maybe", Type: etl.TypeNull},
	}, []any{int64(3), ts, nil})
	b := table("b.csv", []etl.Field{
		{Name: "n", Type: etl.TypeNumber},
		{Name: "mixed", Type: etl.TypeText},
		{Name: "maybe", Type: etl.TypeBoolean},
	}, []any{1.5, "later", true})

	merged := etl.Merge([]*etl.Table{a, b})

	types := map[string]etl.FieldType{}
	for _, f := range merged.Schema.Fields {
		types[f.Name] = f.Type
	}
	if types["n"] != etl.TypeNumber || types["mixed"] != etl.TypeText || types["maybe"] != etl.TypeBoolean {
		t.Fatalf("types = %v", types)
	}
	if v := merged.Records[0].Data["n"]; v != float64(3) {
		t.Errorf("n = %#v, want float64(3)", v)
	}
	if v := merged.Records[0].Data["mixed"]; v != "2024-01-01T09:00:00Z" {
		t.Errorf("mixed = %#v, want RFC3339 text", v)
	}
}

func TestMerge_SkipsNilTables(t *testing.T) {
	a := table("a.csv", []etl.Field{lowerText}, []any{"2024-01-01"})
	merged := etl.Merge([]*etl.Table{nil, a, nil})
	if merged.Len() != 1 {
		t.Errorf("rows = %d, want 1", merged.Len())
	}
}

func TestMerge_KeepsRawTimestampValues(t *testing.T) {
	a := table("a.parquet", []etl.Field{{Name: "datetime", Type: etl.TypeInteger}}, []any{int64(1704103200)})
	b := table("b.csv", []etl.Field{lowerText}, []any{"2024-01-01T09:00:00Z"})

	merged := etl.Merge([]*etl.Table{a, b})

	if v := merged.Records[0].Data["datetime"]; v != int64(1704103200) {
		t.Errorf("datetime = %#v, want raw int64", v)
	}
}

func TestMerge_SkipsTablesWithoutSchema(t *testing.T) {
	a := table("a.csv", []etl.Field{lowerText}, []any{"2024-01-01"})
	orphan := &etl.Table{Source: "b.csv", Records: []etl.Record{{Data: map[string]any{"stray": int64(1)}}}}

	merged := etl.Merge([]*etl.Table{a, orphan})

	if merged.Len() != 1 {
		t.Fatalf("rows = %d, want 1", merged.Len())
	}
	if merged.Schema.Index("stray") >= 0 {
		t.Errorf("fields = %v, want no stray", merged.Schema.FieldNames())
	}
}
