package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Backend identifies the SQL engine behind a database URL.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Schema is the Postgres schema holding hush tables. SQLite has no schemas.
const Schema = "hush"

// DefaultSQLiteDSN is used when no database URL is configured.
const DefaultSQLiteDSN = "file:hush.db"

// BackendFor picks the backend from a database URL. postgres:// and postgresql://
// select Postgres; anything else (including empty) is a SQLite DSN.
func BackendFor(url string) Backend {
	u := strings.ToLower(strings.TrimSpace(url))
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return BackendPostgres
	}
	return BackendSQLite
}

// ParseBackend validates an explicit backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendPostgres, BackendSQLite:
		return b, nil
	default:
		return "", fmt.Errorf("storage: unknown backend %q", s)
	}
}

// PGTable returns the quoted, schema-qualified name of a hush table.
func PGTable(name string) string {
	return pgx.Identifier{Schema, name}.Sanitize()
}

// Timestamp normalizes t for storage: zero means now, always UTC, truncated to the
// microsecond precision both backends keep.
func Timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Microsecond)
}
