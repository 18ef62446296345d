// internal/storage/reconcile_test.go
package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgate/internal/schema"
	"eventgate/internal/storage"
)

func parseSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func openTestDB(t *testing.T) (*sql.DB, storage.Dialect) {
	t.Helper()
	db, dialect, err := storage.Connect(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dialect
}

const reconcileDoc = `
database_url: placeholder
tables:
  events:
    columns:
      - name: time
        type: timestamp
        indexed: true
      - name: event_type
        required: true
        indexed: true
      - name: score
        type: i32
`

func TestReconcileCreatesTablesAndIndexes(t *testing.T) {
	db, dialect := openTestDB(t)
	s := parseSchema(t, reconcileDoc)

	ddl, err := storage.Reconcile(context.Background(), db, dialect, s)
	require.NoError(t, err)

	// One CREATE TABLE plus one CREATE INDEX per indexed column.
	require.Len(t, ddl, 3)
	assert.True(t, strings.HasPrefix(ddl[0], `CREATE TABLE "events"`), "ddl[0] = %s", ddl[0])
	assert.Contains(t, ddl[0], `"event_type" TEXT NOT NULL`)
	assert.Contains(t, ddl[0], `"score" INTEGER`)

	// The table is usable immediately.
	_, err = db.Exec(`INSERT INTO "events" ("event_type") VALUES ('x')`)
	require.NoError(t, err)

	// NOT NULL is enforced for required columns.
	_, err = db.Exec(`INSERT INTO "events" ("score") VALUES (1)`)
	assert.Error(t, err)
}

func TestReconcileIsIdempotent(t *testing.T) {
	db, dialect := openTestDB(t)
	s := parseSchema(t, reconcileDoc)

	ctx := context.Background()
	_, err := storage.Reconcile(ctx, db, dialect, s)
	require.NoError(t, err)

	ddl, err := storage.Reconcile(ctx, db, dialect, s)
	require.NoError(t, err)
	assert.Empty(t, ddl, "second reconciliation must issue no DDL, got %v", ddl)
}

func TestReconcileAddsMissingColumns(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	_, err := storage.Reconcile(ctx, db, dialect, parseSchema(t, `
database_url: placeholder
tables:
  events:
    columns:
      - name: event_type
`))
	require.NoError(t, err)

	// Pre-existing data must survive the additive migration.
	_, err = db.Exec(`INSERT INTO "events" ("event_type") VALUES ('old')`)
	require.NoError(t, err)

	ddl, err := storage.Reconcile(ctx, db, dialect, parseSchema(t, `
database_url: placeholder
tables:
  events:
    columns:
      - name: event_type
      - name: score
        type: i32
        indexed: true
      - name: note
        required: true
`))
	require.NoError(t, err)

	// Two ADD COLUMN plus one CREATE INDEX.
	require.Len(t, ddl, 3)
	assert.Contains(t, ddl[0], `ADD COLUMN "score" INTEGER`)
	// Required columns are still added nullable so existing rows keep working.
	assert.Contains(t, ddl[1], `ADD COLUMN "note" TEXT`)
	assert.NotContains(t, ddl[1], "NOT NULL")

	var eventType string
	var score sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT "event_type", "score" FROM "events"`).Scan(&eventType, &score))
	assert.Equal(t, "old", eventType)
	assert.False(t, score.Valid)

	// And the expanded schema is stable from here on.
	ddl, err = storage.Reconcile(ctx, db, dialect, parseSchema(t, `
database_url: placeholder
tables:
  events:
    columns:
      - name: event_type
      - name: score
        type: i32
        indexed: true
      - name: note
        required: true
`))
	require.NoError(t, err)
	assert.Empty(t, ddl)
}

// Columns in the database but not in the configuration are left alone.
func TestReconcileNeverDropsColumns(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE "events" ("event_type" TEXT, "legacy" TEXT)`)
	require.NoError(t, err)

	ddl, err := storage.Reconcile(ctx, db, dialect, parseSchema(t, `
database_url: placeholder
tables:
  events:
    columns:
      - name: event_type
`))
	require.NoError(t, err)
	assert.Empty(t, ddl)

	var legacy sql.NullString
	err = db.QueryRow(`SELECT "legacy" FROM "events" LIMIT 1`).Scan(&legacy)
	assert.ErrorIs(t, err, sql.ErrNoRows, "legacy column must still exist")
}

func TestInsertRowClassifiesConstraintViolation(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	_, err := storage.Reconcile(ctx, db, dialect, parseSchema(t, reconcileDoc))
	require.NoError(t, err)

	// NULL for the required column violates NOT NULL: a permanent failure.
	err = storage.InsertRow(ctx, db, dialect, "events",
		[]string{"time", "event_type", "score"}, []any{nil, nil, nil})
	require.Error(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.False(t, storageErr.Transient, "constraint violation must be permanent")
}

func TestInsertRowSuccess(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	_, err := storage.Reconcile(ctx, db, dialect, parseSchema(t, reconcileDoc))
	require.NoError(t, err)

	err = storage.InsertRow(ctx, db, dialect, "events",
		[]string{"time", "event_type", "score"}, []any{nil, "game_start", int64(42)})
	require.NoError(t, err)

	var eventType string
	var score int64
	require.NoError(t, db.QueryRow(`SELECT "event_type", "score" FROM "events"`).Scan(&eventType, &score))
	assert.Equal(t, "game_start", eventType)
	assert.Equal(t, int64(42), score)
}
