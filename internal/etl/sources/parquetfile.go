package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"eventetl/internal/etl"
)

// ── Parquet File Source ─────────────────────────────────────
// Reads a whole parquet file through the arrow reader.

type parquetFileSource struct{}

func init() { etl.RegisterReader(&parquetFileSource{}) }

func (s *parquetFileSource) Spec() etl.ReaderSpec {
	return etl.ReaderSpec{
		Type:       "parquet",
		Label:      "Parquet File",
		Extensions: []string{".parquet", ".pq"},
	}
}

func (s *parquetFileSource) Read(ctx context.Context, path string) (*etl.Table, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}
	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()

	numRows := int(tbl.NumRows())
	table := &etl.Table{
		Schema:  &etl.Schema{},
		Records: make([]etl.Record, numRows),
	}
	for i := range table.Records {
		table.Records[i] = etl.Record{Data: make(map[string]any, tbl.NumCols())}
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		field := tbl.Schema().Field(c)
		typ := arrowFieldType(field.Type)
		table.Schema.Fields = append(table.Schema.Fields, etl.Field{Name: field.Name, Type: typ})

		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				v, err := arrowValue(chunk, j)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", field.Name, row, err)
				}
				table.Records[row].Data[field.Name] = v
				row++
			}
		}
	}
	return table, nil
}

// arrowFieldType maps an arrow type to the ETL field type.
func arrowFieldType(dt arrow.DataType) etl.FieldType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return etl.TypeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return etl.TypeNumber
	case arrow.BOOL:
		return etl.TypeBoolean
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return etl.TypeDatetime
	case arrow.NULL:
		return etl.TypeNull
	default:
		return etl.TypeText
	}
}

// arrowValue returns element i of arr as an ETL value. Unsigned values
// that do not fit an int64 are an error.
func arrowValue(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		n := a.Value(i)
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("uint64 value %d overflows int64", n)
		}
		return int64(n), nil
	case *array.Float16:
		return float64(a.Value(i).Float32()), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC(), nil
	case *array.Date32:
		return a.Value(i).ToTime().UTC(), nil
	case *array.Date64:
		return a.Value(i).ToTime().UTC(), nil
	default:
		return arr.ValueStr(i), nil
	}
}
