package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig holds pool sizing for NewPostgresPool.
type PostgresConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// NewPostgresPool builds a pgxpool and validates connectivity.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres url: %w", err)
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingPool(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PingPool checks if we can acquire a connection within timeout.
func PingPool(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// sqlFromPool exposes the pool through database/sql for goose. The caller closes
// the returned handle; closing it releases its connections back to the pool and
// leaves the pool open.
func sqlFromPool(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// MigratePool applies the Postgres migrations through a short-lived database/sql
// handle over pool and closes that handle before returning.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) (applied int, err error) {
	db := sqlFromPool(pool)
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("storage: close migration handle: %w", cerr)
		}
	}()
	return Migrate(ctx, db, BackendPostgres)
}
