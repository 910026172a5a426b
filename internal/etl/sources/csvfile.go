package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"eventetl/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads a comma-delimited file whose first row is the header.

type csvFileSource struct{}

func init() { etl.RegisterReader(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.ReaderSpec {
	return etl.ReaderSpec{
		Type:       "csv",
		Label:      "CSV File",
		Extensions: []string{".csv"},
	}
}

func (s *csvFileSource) Read(ctx context.Context, path string) (*etl.Table, error) {
	headers, rows, err := readCSVFile(ctx, path)
	if err != nil {
		return nil, err
	}

	schema := &etl.Schema{Fields: make([]etl.Field, len(headers))}
	columns := make([][]any, len(headers))
	for j, h := range headers {
		raw := make([]*string, len(rows))
		for i, row := range rows {
			if j < len(row) && !isNAToken(row[j]) {
				raw[i] = &row[j]
			}
		}
		typ, values := inferColumn(raw)
		schema.Fields[j] = etl.Field{Name: h, Type: typ}
		columns[j] = values
	}

	table := &etl.Table{Schema: schema, Records: make([]etl.Record, len(rows))}
	for i := range rows {
		data := make(map[string]any, len(headers))
		for j, h := range headers {
			data[h] = columns[j][i]
		}
		table.Records[i] = etl.Record{Data: data}
	}
	return table, nil
}

func readCSVFile(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv header: %w", err)
	}
	cleanHeaders(headers)

	var rows [][]string
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(row) > len(headers) {
			return nil, nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(row), len(headers))
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// cleanHeaders strips a BOM and padding, names blank headers by position
// and renames repeats as name.1, name.2 and so on.
func cleanHeaders(headers []string) {
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[h] {
			base := h
			for n := 1; seen[h]; n++ {
				h = fmt.Sprintf("%s.%d", base, n)
			}
		}
		seen[h] = true
		headers[i] = h
	}
}

// naTokens are the cell values read as missing.
var naTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"-NaN": true, "-nan": true, "null": true, "NULL": true, "None": true,
	"<NA>": true, "#N/A": true,
}

func isNAToken(s string) bool {
	return naTokens[strings.TrimSpace(s)]
}

// inferColumn picks one type for a column: integer if every non-null cell
// is an int64, number if every one is a float, boolean if every one is
// true/false, null if there are none, text otherwise.
func inferColumn(cells []*string) (etl.FieldType, []any) {
	values := make([]any, len(cells))
	nonNull := 0
	for _, c := range cells {
		if c != nil {
			nonNull++
		}
	}
	if nonNull == 0 {
		return etl.TypeNull, values
	}

	if convertAll(cells, values, func(s string) (any, bool) {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}) {
		return etl.TypeInteger, values
	}
	if convertAll(cells, values, func(s string) (any, bool) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}) {
		return etl.TypeNumber, values
	}
	if convertAll(cells, values, func(s string) (any, bool) {
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	}) {
		return etl.TypeBoolean, values
	}

	for i, c := range cells {
		if c != nil {
			values[i] = *c
		} else {
			values[i] = nil
		}
	}
	return etl.TypeText, values
}

// convertAll fills values with parse applied to every non-null cell and
// reports whether all of them parsed.
func convertAll(cells []*string, values []any, parse func(string) (any, bool)) bool {
	for i, c := range cells {
		if c == nil {
			values[i] = nil
			continue
		}
		v, ok := parse(strings.TrimSpace(*c))
		if !ok {
			return false
		}
		values[i] = v
	}
	return true
}
