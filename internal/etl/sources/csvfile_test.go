package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventetl/internal/etl"
)

func readCSV(t *testing.T, content string) (*etl.Table, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return (&csvFileSource{}).Read(context.Background(), path)
}

func TestCSV_InfersColumnTypes(t *testing.T) {
	tbl, err := readCSV(t, "datetime,count,ratio,flag,empty,label\n"+
		"2024-01-01T09:00:00,1,0.5,true,,a\n"+
		"2024-01-01T10:00:00,NA,2,False,,7\n")
	require.NoError(t, err)

	types := map[string]etl.FieldType{}
	for _, f := range tbl.Schema.Fields {
		types[f.Name] = f.Type
	}
	assert.Equal(t, etl.TypeText, types["datetime"])
	assert.Equal(t, etl.TypeInteger, types["count"])
	assert.Equal(t, etl.TypeNumber, types["ratio"])
	assert.Equal(t, etl.TypeBoolean, types["flag"])
	assert.Equal(t, etl.TypeNull, types["empty"])
	assert.Equal(t, etl.TypeText, types["label"])

	require.Equal(t, 2, tbl.Len())
	first, second := tbl.Records[0].Data, tbl.Records[1].Data
	assert.Equal(t, int64(1), first["count"])
	assert.Nil(t, second["count"])
	assert.Equal(t, 2.0, second["ratio"])
	assert.Equal(t, false, second["flag"])
	assert.Nil(t, first["empty"])
	assert.Equal(t, "7", second["label"])
}

func TestCSV_HeaderCleanup(t *testing.T) {
	tbl, err := readCSV(t, "\ufeffdatetime, val ,\n2024-01-01,1,x\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "val", "Unnamed: 2"}, tbl.Schema.FieldNames())
}

func TestCSV_DuplicateHeadersAreRenamed(t *testing.T) {
	tbl, err := readCSV(t, "datetime,val,val,val.1,val\n2024-01-01,1,2,3,4\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "val", "val.1", "val.1.1", "val.2"}, tbl.Schema.FieldNames())
	assert.Equal(t, int64(2), tbl.Records[0].Data["val.1"])
	assert.Equal(t, int64(3), tbl.Records[0].Data["val.1.1"])
	assert.Equal(t, int64(4), tbl.Records[0].Data["val.2"])
}

func TestCSV_ShortRowsArePadded(t *testing.T) {
	tbl, err := readCSV(t, "datetime,val,note\n2024-01-01,1\n2024-01-02,2,ok\n")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Nil(t, tbl.Records[0].Data["note"])
	assert.Equal(t, "ok", tbl.Records[1].Data["note"])
}

func TestCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty file":      "",
		"too many fields": "a,b\n1,2,3\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readCSV(t, content)
			assert.Error(t, err)
		})
	}
}

func TestCSV_HeaderOnly(t *testing.T) {
	tbl, err := readCSV(t, "datetime,val\n")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []string{"datetime", "val"}, tbl.Schema.FieldNames())
}
