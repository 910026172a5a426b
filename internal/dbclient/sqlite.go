package dbclient

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout matches what pandas-style exports and the sqlite
// driver write for zone-aware timestamps.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

var sqliteDialect = &dialect{
	driverName: "sqlite",
	quote:      quoteDouble,
	placeholder: func(int) string {
		return "?"
	},
	columnTypes: map[ColumnKind]string{
		KindNull:     "TEXT",
		KindInteger:  "INTEGER",
		KindNumber:   "REAL",
		KindBoolean:  "INTEGER",
		KindText:     "TEXT",
		KindDatetime: "TIMESTAMP",
	},
	bindTime: func(t time.Time) any {
		return t.UTC().Format(sqliteTimeLayout)
	},
	bindBool: func(b bool) any {
		if b {
			return int64(1)
		}
		return int64(0)
	},
	columnsQuery: `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
}

// newSQLiteConnector opens (or creates) the SQLite file at path.
// The parent directory is created when missing.
func newSQLiteConnector(path string) (*sqlConnector, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	c, err := newSQLConnector(sqliteDialect, dsn)
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer; a single connection prevents SQLITE_BUSY
	c.db.SetMaxOpenConns(1)
	return c, nil
}
