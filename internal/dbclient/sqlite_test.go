package dbclient

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []Column{
	{Name: "datetime", Kind: KindDatetime},
	{Name: "val", Kind: KindInteger},
	{Name: "score", Kind: KindNumber},
	{Name: "ok", Kind: KindBoolean},
	{Name: "note", Kind: KindText},
	{Name: "blank", Kind: KindNull},
}

func openSQLite(t *testing.T) (Connector, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	conn, err := NewConnector(DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, path
}

func TestSQLite_ReplaceTable(t *testing.T) {
	conn, _ := openSQLite(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	n, err := conn.ReplaceTable(ctx, "events", eventColumns, [][]any{
		{ts, int64(1), 0.5, true, "first", nil},
		{ts.Add(time.Hour), int64(2), nil, false, nil, nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cols, err := conn.DescribeTable(ctx, "events")
	require.NoError(t, err)
	require.Len(t, cols, len(eventColumns))
	assert.Equal(t, "datetime", cols[0].Name)
	assert.Equal(t, "TIMESTAMP", cols[0].Type)
	assert.Equal(t, "INTEGER", cols[1].Type)
	assert.Equal(t, "REAL", cols[2].Type)

	count, err := conn.CountRows(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLite_ReplaceTwiceKeepsOnlySecondDataset(t *testing.T) {
	conn, path := openSQLite(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := conn.ReplaceTable(ctx, "events", eventColumns, [][]any{
		{ts, int64(1), 1.0, true, "a", nil},
		{ts, int64(2), 2.0, true, "b", nil},
		{ts, int64(3), 3.0, true, "c", nil},
	})
	require.NoError(t, err)

	second := []Column{{Name: "datetime", Kind: KindDatetime}, {Name: "val", Kind: KindInteger}}
	_, err = conn.ReplaceTable(ctx, "events", second, [][]any{{ts, int64(9)}})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var vals []int64
	rows, err := db.Query(`SELECT val FROM events`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var v int64
		require.NoError(t, rows.Scan(&v))
		vals = append(vals, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{9}, vals)

	var stamp string
	require.NoError(t, db.QueryRow(`SELECT CAST(datetime AS TEXT) FROM events`).Scan(&stamp))
	assert.True(t, strings.HasPrefix(stamp, "2024-01-01 00:00:00"), "stored %q", stamp)
}

func TestSQLite_FailedReplaceLeavesPreviousTable(t *testing.T) {
	conn, _ := openSQLite(t)
	ctx := context.Background()

	_, err := conn.ReplaceTable(ctx, "events", eventColumns[1:2], [][]any{{int64(1)}, {int64(2)}})
	require.NoError(t, err)

	// The second row has the wrong arity, so the whole replace rolls back.
	_, err = conn.ReplaceTable(ctx, "events", eventColumns[1:2], [][]any{{int64(7)}, {int64(8), "extra"}})
	require.Error(t, err)

	count, err := conn.CountRows(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLite_QuotesIdentifiers(t *testing.T) {
	conn, _ := openSQLite(t)
	ctx := context.Background()

	cols := []Column{{Name: `odd "name"`, Kind: KindText}, {Name: "select", Kind: KindInteger}}
	_, err := conn.ReplaceTable(ctx, "my table", cols, [][]any{{"x", int64(1)}})
	require.NoError(t, err)

	info, err := conn.DescribeTable(ctx, "my table")
	require.NoError(t, err)
	assert.Equal(t, `odd "name"`, info[0].Name)
}

func TestSQLite_DescribeMissingTable(t *testing.T) {
	conn, _ := openSQLite(t)
	_, err := conn.DescribeTable(context.Background(), "nope")
	assert.Error(t, err)
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{"": DriverSQLite, "SQLite": DriverSQLite, "pg": DriverPostgres, "postgresql": DriverPostgres, "mysql": DriverMySQL} {
		got, err := ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDriver("oracle")
	assert.Error(t, err)
}

func TestDialectSQL(t *testing.T) {
	cols := []Column{{Name: "datetime", Kind: KindDatetime}, {Name: "val", Kind: KindInteger}}

	assert.Equal(t, `CREATE TABLE "events" ("datetime" TIMESTAMPTZ, "val" BIGINT)`, postgresDialect.createTableSQL("events", cols))
	assert.Equal(t, `INSERT INTO "events" ("datetime", "val") VALUES ($1, $2)`, postgresDialect.insertSQL("events", cols))
	assert.Equal(t, "CREATE TABLE `events` (`datetime` DATETIME(6), `val` BIGINT)", mysqlDialect.createTableSQL("events", cols))
	assert.Equal(t, "INSERT INTO `events` (`datetime`, `val`) VALUES (?, ?)", mysqlDialect.insertSQL("events", cols))
}
