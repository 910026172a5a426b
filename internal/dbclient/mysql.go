package dbclient

import (
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL commits DDL implicitly, so the drop and create of ReplaceTable are
// not rolled back together with a failed insert on this driver.
var mysqlDialect = &dialect{
	driverName: "mysql",
	quote: func(name string) string {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	},
	placeholder: func(int) string {
		return "?"
	},
	columnTypes: map[ColumnKind]string{
		KindNull:     "LONGTEXT",
		KindInteger:  "BIGINT",
		KindNumber:   "DOUBLE",
		KindBoolean:  "BOOLEAN",
		KindText:     "LONGTEXT",
		KindDatetime: "DATETIME(6)",
	},
	bindTime: func(t time.Time) any { return t.UTC() },
	bindBool: func(b bool) any { return b },
	columnsQuery: `SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()
		ORDER BY ORDINAL_POSITION`,
}
