package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oarkflow/tabular/pkg/contracts"
)

var (
	// ErrSchemaNotFound is returned when the target table does not exist
	// or its catalog entries are unreadable.
	ErrSchemaNotFound = errors.New("schema: table not found")
	// ErrUnsupportedDriver is returned when no catalog dialect is known
	// for the connection's driver.
	ErrUnsupportedDriver = errors.New("schema: unsupported driver")
)

// Kind is the coarse value class of a column, derived from the catalog
// DATA_TYPE. It drives coercion, not storage.
type Kind string

const (
	Text    Kind = "text"
	Integer Kind = "integer"
	Decimal Kind = "decimal"
	Date    Kind = "date"
	Boolean Kind = "boolean"
	Binary  Kind = "binary"
)

// Column describes one target column. Immutable after Load.
type Column struct {
	Name       string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool
	HasDefault bool
	Ordinal    int
}

// Table is an ordered column set for one database table. Column order
// follows the catalog ordinal order. Name keeps the identifier as given,
// including any schema qualification.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column, matched case-insensitively the way the
// catalogs report identifiers.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKeys returns the names of the primary key columns in ordinal order.
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// splitQualified splits an optionally schema-qualified identifier such as
// "sales.orders" into its schema and bare table name.
func splitQualified(table string) (schemaName, name string) {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "", table
}

// Load fetches the live descriptor for table. The identifier may be
// schema-qualified ("sales.orders"); unqualified names resolve to public
// (postgres), the current database (mysql), or the main database (sqlite).
// The descriptor is rebuilt on every call; nothing is cached between runs.
func Load(ctx context.Context, db contracts.DB, table string) (*Table, error) {
	var (
		cols []Column
		err  error
	)
	switch db.Driver() {
	case "sqlite", "sqlite3":
		cols, err = loadSQLite(ctx, db, table)
	case "mysql":
		cols, err = loadMySQL(ctx, db, table)
	case "postgres", "postgresql", "pgx":
		cols, err = loadPostgres(ctx, db, table)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, db.Driver())
	}
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, table)
	}
	return &Table{Name: table, Columns: cols}, nil
}

const (
	postgresColumnsQuery = `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_name = $1 AND table_schema = $2
ORDER BY ordinal_position`
	postgresKeysQuery = `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_name = $1 AND tc.table_schema = $2`
)

func loadPostgres(ctx context.Context, db contracts.DB, table string) ([]Column, error) {
	schemaName, name := splitQualified(table)
	if schemaName == "" {
		schemaName = "public"
	}
	args := []any{name, schemaName}
	return loadInformationSchema(ctx, db, table, postgresColumnsQuery, postgresKeysQuery, args)
}

func loadMySQL(ctx context.Context, db contracts.DB, table string) ([]Column, error) {
	schemaName, name := splitQualified(table)
	colQuery := `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()
ORDER BY ORDINAL_POSITION`
	keyQuery := `SELECT COLUMN_NAME
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE() AND CONSTRAINT_NAME = 'PRIMARY'`
	args := []any{name}
	if schemaName != "" {
		colQuery = strings.Replace(colQuery, "TABLE_SCHEMA = DATABASE()", "TABLE_SCHEMA = ?", 1)
		keyQuery = strings.Replace(keyQuery, "TABLE_SCHEMA = DATABASE()", "TABLE_SCHEMA = ?", 1)
		args = append(args, schemaName)
	}
	return loadInformationSchema(ctx, db, table, colQuery, keyQuery, args)
}

func loadInformationSchema(ctx context.Context, db contracts.DB, table, colQuery, keyQuery string, args []any) ([]Column, error) {
	rows, err := db.QueryContext(ctx, colQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaNotFound, table, err)
	}
	defer rows.Close()

	var cols []Column
	ordinal := 0
	for rows.Next() {
		var (
			name, dataType, nullable string
			def                      sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("schema: scan column of %s: %w", table, err)
		}
		ordinal++
		cols = append(cols, Column{
			Name:       name,
			Kind:       ClassifyType(dataType),
			Nullable:   strings.EqualFold(nullable, "YES"),
			HasDefault: def.Valid,
			Ordinal:    ordinal,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: read columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return cols, nil
	}

	keys, err := db.QueryContext(ctx, keyQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("schema: primary keys of %s: %w", table, err)
	}
	defer keys.Close()
	for keys.Next() {
		var name string
		if err := keys.Scan(&name); err != nil {
			return nil, fmt.Errorf("schema: scan primary key of %s: %w", table, err)
		}
		for i := range cols {
			if strings.EqualFold(cols[i].Name, name) {
				cols[i].PrimaryKey = true
			}
		}
	}
	if err := keys.Err(); err != nil {
		return nil, fmt.Errorf("schema: read primary keys of %s: %w", table, err)
	}
	return cols, nil
}

func loadSQLite(ctx context.Context, db contracts.DB, table string) ([]Column, error) {
	schemaName, name := splitQualified(table)
	pragma := fmt.Sprintf("PRAGMA table_info(%s)", name)
	if schemaName != "" {
		pragma = fmt.Sprintf("PRAGMA %s.table_info(%s)", schemaName, name)
	}
	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaNotFound, table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &def, &pk); err != nil {
			return nil, fmt.Errorf("schema: scan column of %s: %w", table, err)
		}
		cols = append(cols, Column{
			Name:       name,
			Kind:       ClassifyType(dataType),
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
			HasDefault: def.Valid,
			Ordinal:    cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: read columns of %s: %w", table, err)
	}
	return cols, nil
}

// ClassifyType maps a catalog DATA_TYPE string to a Kind.
func ClassifyType(dataType string) Kind {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case strings.Contains(dt, "bool"):
		return Boolean
	case strings.Contains(dt, "int"), dt == "serial", dt == "bigserial", dt == "smallserial", dt == "year":
		return Integer
	case strings.Contains(dt, "decimal"), strings.Contains(dt, "numeric"),
		strings.Contains(dt, "double"), strings.Contains(dt, "float"),
		strings.Contains(dt, "real"), strings.Contains(dt, "money"):
		return Decimal
	case strings.Contains(dt, "date"), strings.Contains(dt, "time"):
		return Date
	case strings.Contains(dt, "blob"), strings.Contains(dt, "binary"), dt == "bytea":
		return Binary
	default:
		return Text
	}
}

// Tables lists the importable base tables visible to the connection, for
// callers that present a table picker.
func Tables(ctx context.Context, db contracts.DB) ([]string, error) {
	var query string
	switch db.Driver() {
	case "sqlite", "sqlite3":
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case "mysql":
		query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
	case "postgres", "postgresql", "pgx":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, db.Driver())
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("schema: scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	return names, nil
}
