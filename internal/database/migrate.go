package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded goose migrations for the given driver.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	var dialect, dir string
	switch driver {
	case DriverMySQL:
		dialect, dir = "mysql", "migrations/mysql"
	case DriverSQLite:
		dialect, dir = "sqlite3", "migrations/sqlite"
	default:
		return fmt.Errorf("unsupported db driver %q", driver)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	return goose.UpContext(ctx, db, dir)
}
