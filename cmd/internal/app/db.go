package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hush/cmd/identity"
	"hush/cmd/internal/messages"
	"hush/cmd/internal/storage"
)

// Stores bundles the persistence layer for one backend. The app owns its
// lifecycle; the stores never close the handles they were given.
type Stores struct {
	Backend  storage.Backend
	Users    identity.Store
	Messages messages.Store

	pool *pgxpool.Pool
	db   *sql.DB
}

// OpenStores connects to the configured backend, applies migrations, and builds
// the credential and message stores on top of it.
func OpenStores(ctx context.Context, cfg Config, log Logger) (*Stores, error) {
	url := cfg.DatabaseURL
	if url == "" {
		url = storage.DefaultSQLiteDSN
	}
	backend := storage.BackendFor(url)

	switch backend {
	case storage.BackendPostgres:
		pool, err := storage.NewPostgresPool(ctx, storage.PostgresConfig{
			URL:      url,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, err
		}
		applied, err := storage.MigratePool(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		users, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		msgs, err := messages.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("db.open", "backend", string(backend), "migrations_applied", applied)
		return &Stores{Backend: backend, Users: users, Messages: msgs, pool: pool}, nil

	default:
		db, err := storage.OpenSQLite(ctx, url)
		if err != nil {
			return nil, err
		}
		applied, err := storage.Migrate(ctx, db, backend)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		users, err := identity.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		msgs, err := messages.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("db.open", "backend", string(backend), "migrations_applied", applied)
		return &Stores{Backend: backend, Users: users, Messages: msgs, db: db}, nil
	}
}

// Ping checks the backend is reachable within timeout.
func (s *Stores) Ping(ctx context.Context, timeout time.Duration) error {
	switch {
	case s == nil:
		return errors.New("stores not open")
	case s.pool != nil:
		return storage.PingPool(ctx, s.pool, timeout)
	case s.db != nil:
		return storage.PingSQL(ctx, s.db, timeout)
	default:
		return errors.New("stores not open")
	}
}

// Close releases the underlying pool or database handle.
func (s *Stores) Close() error {
	if s == nil {
		return nil
	}
	if s.pool != nil {
		s.pool.Close()
		return nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
