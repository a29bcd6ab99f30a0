package sqladapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/tabular/pkg/contracts"
	"github.com/oarkflow/tabular/pkg/utils"
)

// Conn adapts a squealx database handle to the contracts.DB surface the
// engine drives. The driver name decides placeholder style and catalog SQL.
type Conn struct {
	db     *squealx.DB
	driver string
}

// New wraps db. driver is the sql driver name ("postgres", "mysql",
// "sqlite3").
func New(db *squealx.DB, driver string) *Conn {
	return &Conn{db: db, driver: driver}
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (contracts.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Conn) Begin(ctx context.Context) (contracts.Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Conn) Driver() string {
	return c.driver
}

func (c *Conn) Close() error {
	return c.db.Close()
}

// placeholders renders n bind markers starting at offset, in the driver's
// style: $1..$n for postgres, ? otherwise.
func placeholders(driver string, offset, n int) []string {
	numbered := false
	switch driver {
	case "postgres", "postgresql", "pgx":
		numbered = true
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if numbered {
			out[i] = fmt.Sprintf("$%d", offset+i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

// SupportsMultiRowInsert reports whether the driver accepts multi-row
// VALUES lists. Unknown drivers fall back to one statement per row.
func SupportsMultiRowInsert(driver string) bool {
	switch driver {
	case "postgres", "postgresql", "pgx", "mysql", "sqlite", "sqlite3":
		return true
	}
	return false
}

// InsertStatement builds one parameterized INSERT covering all rows. Every
// row must carry the same column set; values are bound in cols order.
func InsertStatement(driver, table string, cols []string, rows []utils.Record) (string, []any) {
	var (
		groups []string
		args   = make([]any, 0, len(rows)*len(cols))
	)
	for i, row := range rows {
		ph := placeholders(driver, i*len(cols), len(cols))
		groups = append(groups, "("+strings.Join(ph, ", ")+")")
		for _, col := range cols {
			args = append(args, row[col])
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(cols, ", "), strings.Join(groups, ", "))
	return query, args
}

// UpdateStatement builds a keyed UPDATE for one row. The key column is
// never part of the SET list; it only selects the row.
func UpdateStatement(driver, table string, setCols []string, keyCol string, row utils.Record) (string, []any) {
	ph := placeholders(driver, 0, len(setCols)+1)
	sets := make([]string, len(setCols))
	args := make([]any, 0, len(setCols)+1)
	for i, col := range setCols {
		sets[i] = fmt.Sprintf("%s = %s", col, ph[i])
		args = append(args, row[col])
	}
	args = append(args, row[keyCol])
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		table, strings.Join(sets, ", "), keyCol, ph[len(setCols)])
	return query, args
}

// TruncateStatement returns the driver's fastest empty-the-table statement.
func TruncateStatement(driver, table string) string {
	switch driver {
	case "sqlite", "sqlite3":
		return fmt.Sprintf("DELETE FROM %s", table)
	default:
		return fmt.Sprintf("TRUNCATE TABLE %s", table)
	}
}
