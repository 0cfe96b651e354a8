// Package dbtest opens throwaway SQLite databases with the production
// schema applied, for repository and handler tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrmuseum/museum-api/internal/database"
)

// Open returns a migrated database backed by a file in t.TempDir().
// The handle is closed when the test finishes.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "museum.db")
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(context.Background(), db, database.DriverSQLite))
	return db
}
