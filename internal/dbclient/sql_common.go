package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// dialect holds the per-driver SQL differences.
type dialect struct {
	driverName   string
	quote        func(name string) string
	placeholder  func(i int) string // 1-based
	columnTypes  map[ColumnKind]string
	bindTime     func(time.Time) any
	bindBool     func(bool) any
	columnsQuery string // one bind parameter: the table name
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *dialect) columnType(k ColumnKind) string {
	if t, ok := d.columnTypes[k]; ok {
		return t
	}
	return d.columnTypes[KindText]
}

func (d *dialect) bind(v any) any {
	switch x := v.(type) {
	case time.Time:
		return d.bindTime(x)
	case bool:
		return d.bindBool(x)
	default:
		return v
	}
}

func (d *dialect) createTableSQL(table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.quote(c.Name) + " " + d.columnType(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(table), strings.Join(defs, ", "))
}

func (d *dialect) insertSQL(table string, columns []Column) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = d.quote(c.Name)
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// sqlConnector is the shared implementation for SQLite, Postgres and MySQL.
type sqlConnector struct {
	dialect *dialect
	db      *sql.DB
}

// newSQLConnector creates a generic SQL connector.
func newSQLConnector(d *dialect, dsn string) (*sqlConnector, error) {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName, err)
	}
	return &sqlConnector{dialect: d, db: db}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *sqlConnector) ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any) (int, error) {
	if table == "" {
		return 0, fmt.Errorf("empty table name")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("table %s: no columns", table)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+c.dialect.quote(table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, c.dialect.createTableSQL(table, columns)); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, c.dialect.insertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d: %d values for %d columns", i, len(row), len(columns))
		}
		for j, v := range row {
			args[j] = c.dialect.bind(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

func (c *sqlConnector) DescribeTable(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var ci ColumnInfo
		if err := rows.Scan(&ci.Name, &ci.Type); err != nil {
			return nil, err
		}
		cols = append(cols, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table not found: %s", table)
	}
	return cols, nil
}

func (c *sqlConnector) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.dialect.quote(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
