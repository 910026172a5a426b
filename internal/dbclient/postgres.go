package dbclient

import (
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = &dialect{
	driverName: "postgres",
	quote:      quoteDouble,
	placeholder: func(i int) string {
		return "$" + strconv.Itoa(i)
	},
	columnTypes: map[ColumnKind]string{
		KindNull:     "TEXT",
		KindInteger:  "BIGINT",
		KindNumber:   "DOUBLE PRECISION",
		KindBoolean:  "BOOLEAN",
		KindText:     "TEXT",
		KindDatetime: "TIMESTAMPTZ",
	},
	bindTime: func(t time.Time) any { return t.UTC() },
	bindBool: func(b bool) any { return b },
	columnsQuery: `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = current_schema()
		ORDER BY ordinal_position`,
}
