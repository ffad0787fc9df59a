package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, p *goose.Provider) ([]*goose.MigrationResult, error) {
	return p.Up(ctx)
}

// Migrate applies every pending embedded migration for backend and returns the
// number of migrations applied.
func Migrate(ctx context.Context, db *sql.DB, backend Backend) (int, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch backend {
	case BackendPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case BackendSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return 0, fmt.Errorf("storage: unknown backend %q", backend)
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return 0, err
	}

	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("storage: goose provider: %w", err)
	}

	res, err := gooseUp(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("storage: migrate %s: %w", backend, err)
	}
	return len(res), nil
}
