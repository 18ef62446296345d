// internal/storage/reconcile.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"eventgate/internal/schema"
)

// Reconcile aligns the live database with the configured schema, strictly
// additively: it creates missing tables, columns and indexes and never drops
// or alters anything that already exists. Columns present in the database but
// not in the configuration, or present with a different type, are logged and
// left alone; removing or retyping a column is a manual migration plus a
// restart.
//
// It runs once at startup, before the server accepts traffic, and any DDL
// failure is fatal to the caller. The returned slice holds every statement
// that was executed; on a database already in sync it is empty.
func Reconcile(ctx context.Context, db *sql.DB, d Dialect, s *schema.Schema) ([]string, error) {
	tableNames := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	var executed []string
	exec := func(ddl string) error {
		customLog.Printf("Storage: Executing DDL: %s", ddl)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("DDL failed: %s: %w", ddl, err)
		}
		executed = append(executed, ddl)
		return nil
	}

	for _, name := range tableNames {
		table := s.Tables[name]

		exists, err := tableExists(ctx, db, d, name)
		if err != nil {
			return executed, err
		}

		if !exists {
			if err := exec(createTableDDL(d, table)); err != nil {
				return executed, err
			}
			for _, col := range table.Columns {
				if !col.Indexed {
					continue
				}
				if err := exec(createIndexDDL(table.Name, col.Name)); err != nil {
					return executed, err
				}
			}
			continue
		}

		live, err := tableColumns(ctx, db, d, name)
		if err != nil {
			return executed, err
		}

		configured := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			lower := strings.ToLower(col.Name)
			configured[lower] = struct{}{}

			liveType, present := live[lower]
			if !present {
				// Added nullable even when required, so existing rows
				// without a value do not fail the migration.
				ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
					QuoteIdentifier(table.Name), QuoteIdentifier(col.Name), d.ColumnType(col.Type))
				if err := exec(ddl); err != nil {
					return executed, err
				}
				continue
			}
			if d.normalizeDBType(liveType) != d.ColumnType(col.Type) {
				customLog.Warnf("Storage: table %q column %q has type %q, configuration says %s; leaving it untouched",
					table.Name, col.Name, liveType, d.ColumnType(col.Type))
			}
		}

		for liveName := range live {
			if _, ok := configured[liveName]; !ok {
				customLog.Warnf("Storage: table %q has column %q not present in the configuration; leaving it untouched",
					table.Name, liveName)
			}
		}

		for _, col := range table.Columns {
			if !col.Indexed {
				continue
			}
			present, err := indexExists(ctx, db, d, indexName(table.Name, col.Name))
			if err != nil {
				return executed, err
			}
			if !present {
				if err := exec(createIndexDDL(table.Name, col.Name)); err != nil {
					return executed, err
				}
			}
		}
	}

	return executed, nil
}

func createTableDDL(d Dialect, table *schema.Table) string {
	defs := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		def := fmt.Sprintf("%s %s", QuoteIdentifier(col.Name), d.ColumnType(col.Type))
		if col.Required {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(table.Name), strings.Join(defs, ", "))
}

func indexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, column)
}

func createIndexDDL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		QuoteIdentifier(indexName(table, column)), QuoteIdentifier(table), QuoteIdentifier(column))
}
