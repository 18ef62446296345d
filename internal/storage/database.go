// internal/storage/database.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Driver registration
	_ "github.com/mattn/go-sqlite3" // Driver registration

	"eventgate/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Connect opens the connection pool for the configured database URL and
// verifies it with a ping. postgres:// and postgresql:// URLs go to the
// Postgres driver; anything else is treated as a SQLite file path, with an
// optional sqlite:// prefix.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, Dialect, error) {
	var driver, dsn string
	var dialect Dialect

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		driver, dsn, dialect = "postgres", databaseURL, Postgres
	default:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if !strings.Contains(path, "?") {
			// WAL mode and a busy timeout keep concurrent request writers
			// from tripping over SQLITE_BUSY.
			path += "?_journal_mode=WAL&_busy_timeout=5000"
		}
		driver, dsn, dialect = "sqlite3", path, SQLite
	}

	customLog.Printf("Storage: Opening %s database", dialect)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, dialect, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dialect, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	customLog.Println("Storage: Database connection successful.")
	return db, dialect, nil
}
