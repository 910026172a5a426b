package etl

// ── Record ─────────────────────────────────────────────────
// Common in-memory table format.
// Every reader emits a Table, the normalizer merges Tables,
// the destination writes a Table.

// FieldType is the inferred type of a column.
type FieldType string

const (
	TypeNull     FieldType = "null" // no non-null value seen; unifies with anything
	TypeInteger  FieldType = "integer"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeText     FieldType = "text"
	TypeDatetime FieldType = "datetime"
)

// Field describes a single column in a dataset.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema describes the ordered columns of a table.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named field, or -1.
func (s *Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains the named field.
func (s *Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Record is a single row. A missing key and a nil value both mean null.
// Values are nil, int64, float64, bool, string or time.Time.
type Record struct {
	Data map[string]any `json:"data"`
}

// Table is an ordered set of records with a schema.
// Source is the originating file name for loaded tables; merged tables
// carry an empty Source.
type Table struct {
	Source  string   `json:"source"`
	Schema  *Schema  `json:"schema"`
	Records []Record `json:"records"`
}

// Len returns the number of records, treating a nil table as empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Column returns the values of the named column in record order.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Data[name]
	}
	return out
}
