package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const sqliteDriver = "sqlite"

// OpenSQLite opens a SQLite database with foreign keys enforced and verifies it.
//
// SQLite allows one writer; the pool is pinned to a single connection so statements
// serialize instead of failing with SQLITE_BUSY. This also keeps ":memory:" databases
// alive for the lifetime of the *sql.DB.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	dsn = withSQLitePragmas(dsn)

	db, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := PingSQL(ctx, db, 3*time.Second); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// PingSQL pings a database/sql handle within timeout.
func PingSQL(parent context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return db.PingContext(ctx)
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
