// internal/storage/insert.go
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// StorageError wraps a database failure during an insert. Transient failures
// (connection loss, pool exhaustion) may be retried by the caller at the
// batch level; permanent ones (constraint violations) must not be.
type StorageError struct {
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient storage error: %v", e.Err)
	}
	return fmt.Sprintf("storage error: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// InsertRow executes one parameterized insert for a validated row. Each event
// gets its own statement so one failure never rolls back or blocks the others
// in a batch. The connection is drawn from the pool for the duration of this
// single statement and released on every exit path.
func InsertRow(ctx context.Context, db *sql.DB, d Dialect, table string, columns []string, values []any) error {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col)
		placeholders[i] = d.Placeholder(i + 1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := db.ExecContext(ctx, insertSQL, values...); err != nil {
		customLog.Warnf("Storage: Failed INSERT into %q: %v", table, err)
		return &StorageError{Transient: isTransient(err), Err: err}
	}
	return nil
}

// isTransient classifies a driver error without interpreting backend error
// codes beyond the transient/permanent split.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57": // connection exception, insufficient resources, operator intervention
			return true
		}
	}

	return false
}
