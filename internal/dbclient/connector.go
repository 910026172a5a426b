package dbclient

import (
	"context"
	"fmt"
	"strings"
)

// Driver identifies the relational engine a table is materialized into.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// ParseDriver validates a driver name. Empty means sqlite.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DriverSQLite, nil
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return d, nil
	case "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// ColumnKind is the logical type of a column to create.
type ColumnKind string

const (
	KindNull     ColumnKind = "null"
	KindInteger  ColumnKind = "integer"
	KindNumber   ColumnKind = "number"
	KindBoolean  ColumnKind = "boolean"
	KindText     ColumnKind = "text"
	KindDatetime ColumnKind = "datetime"
)

// Column describes a column of a table to create.
type Column struct {
	Name string
	Kind ColumnKind
}

// ColumnInfo describes a column of an existing table.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Connector abstracts the target relational store.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// ReplaceTable drops table if it exists, recreates it with columns and
	// inserts rows, all in one transaction. Each row holds one value per
	// column, in column order. Returns the number of rows inserted.
	ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any) (int, error)

	// DescribeTable returns the columns of an existing table in order.
	DescribeTable(ctx context.Context, table string) ([]ColumnInfo, error)

	// CountRows returns the number of rows in table.
	CountRows(ctx context.Context, table string) (int, error)

	// Close releases the connection.
	Close() error
}

// NewConnector opens a Connector for driver at location. For sqlite the
// location is a file path; for postgres and mysql it is the driver DSN.
func NewConnector(driver Driver, location string) (Connector, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("empty %s location", driver)
	}
	switch driver {
	case DriverSQLite, "":
		return newSQLiteConnector(location)
	case DriverPostgres:
		return newSQLConnector(postgresDialect, location)
	case DriverMySQL:
		return newSQLConnector(mysqlDialect, location)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
