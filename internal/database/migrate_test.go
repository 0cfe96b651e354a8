package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrmuseum/museum-api/internal/database"
)

func TestRunMigrationsSQLite(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db, database.DriverSQLite))
	// second run is a no-op
	require.NoError(t, database.RunMigrations(ctx, db, database.DriverSQLite))

	for _, table := range []string{"users", "refresh_tokens", "visitors", "exhibits",
		"exhibit_contents", "visit_records", "comments", "museum_settings"} {
		var n int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestRunMigrationsUnknownDriver(t *testing.T) {
	err := database.RunMigrations(context.Background(), nil, "postgres")
	assert.Error(t, err)
}
