// internal/storage/dialect.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventgate/internal/schema"
)

// Dialect selects between the supported SQL backends. Identifier quoting,
// placeholder syntax, column type names and catalog introspection all differ
// between the two.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Placeholder returns the parameter marker for the 1-based position n.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteIdentifier double-quotes a pre-validated identifier. Names reach this
// point only after schema.IsValidIdentifier has accepted them, so no escaping
// is needed inside the quotes.
func QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

// ColumnType maps a schema column type to the dialect's DDL type name.
func (d Dialect) ColumnType(t schema.ColumnType) string {
	if d == Postgres {
		switch t {
		case schema.TypeBool:
			return "BOOLEAN"
		case schema.TypeI32:
			return "INTEGER"
		case schema.TypeI64:
			return "BIGINT"
		case schema.TypeF32:
			return "REAL"
		case schema.TypeF64:
			return "DOUBLE PRECISION"
		case schema.TypeTimestamp:
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	}
	switch t {
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeI32, schema.TypeI64:
		return "INTEGER"
	case schema.TypeF32, schema.TypeF64:
		return "REAL"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// normalizeDBType folds the type name reported by the database catalog into
// the same vocabulary ColumnType produces, so configured and live columns
// can be compared for drift warnings.
func (d Dialect) normalizeDBType(dbType string) string {
	upper := strings.ToUpper(strings.TrimSpace(dbType))
	if d == Postgres {
		switch upper {
		case "CHARACTER VARYING", "VARCHAR":
			return "TEXT"
		case "TIMESTAMP WITH TIME ZONE":
			return "TIMESTAMPTZ"
		case "INT4":
			return "INTEGER"
		case "INT8":
			return "BIGINT"
		case "FLOAT4":
			return "REAL"
		case "FLOAT8":
			return "DOUBLE PRECISION"
		}
		return upper
	}
	switch upper {
	case "VARCHAR", "CHAR", "CLOB":
		return "TEXT"
	case "INT", "BIGINT", "SMALLINT", "TINYINT":
		return "INTEGER"
	case "FLOAT", "DOUBLE":
		return "REAL"
	case "DATETIME":
		return "TIMESTAMP"
	}
	return upper
}

// tableExists checks the backend catalog for a table of the given name.
func tableExists(ctx context.Context, db *sql.DB, d Dialect, name string) (bool, error) {
	var query string
	if d == Postgres {
		query = `SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1)`
	} else {
		query = `SELECT EXISTS (
			SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`
	}
	var exists bool
	if err := db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %q: %w", name, err)
	}
	return exists, nil
}

// tableColumns returns the live columns of a table as a map from lower-cased
// column name to the catalog's type name.
func tableColumns(ctx context.Context, db *sql.DB, d Dialect, name string) (map[string]string, error) {
	if d == Postgres {
		rows, err := db.QueryContext(ctx, `
			SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1`, name)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve schema for table %q: %w", name, err)
		}
		defer rows.Close()

		columns := make(map[string]string)
		for rows.Next() {
			var colName, dataType string
			if err := rows.Scan(&colName, &dataType); err != nil {
				return nil, fmt.Errorf("failed to parse schema for table %q: %w", name, err)
			}
			columns[strings.ToLower(colName)] = dataType
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read schema for table %q: %w", name, err)
		}
		return columns, nil
	}

	// Table name is a pre-validated identifier; PRAGMA takes no placeholders.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", QuoteIdentifier(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schema for table %q: %w", name, err)
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var cid int
		var colName, sqlType string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &colName, &sqlType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to parse schema for table %q: %w", name, err)
		}
		columns[strings.ToLower(colName)] = sqlType
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema for table %q: %w", name, err)
	}
	return columns, nil
}

// indexExists checks the backend catalog for an index of the given name.
func indexExists(ctx context.Context, db *sql.DB, d Dialect, name string) (bool, error) {
	var query string
	if d == Postgres {
		query = `SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = current_schema() AND indexname = $1)`
	} else {
		query = `SELECT EXISTS (
			SELECT 1 FROM sqlite_master WHERE type = 'index' AND name = ?)`
	}
	var exists bool
	if err := db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check index %q: %w", name, err)
	}
	return exists, nil
}
