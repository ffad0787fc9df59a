package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) (context.Context, func(string, ...any) error) {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n, err := Migrate(ctx, db, BackendSQLite)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	exec := func(q string, args ...any) error {
		_, err := db.ExecContext(ctx, q, args...)
		return err
	}
	return ctx, exec
}

func TestBackendFor(t *testing.T) {
	cases := map[string]Backend{
		"postgres://u:p@localhost/hush":  BackendPostgres,
		"POSTGRESQL://localhost/hush":    BackendPostgres,
		"":                               BackendSQLite,
		"file:hush.db":                   BackendSQLite,
		":memory:":                       BackendSQLite,
		"/var/lib/hush/hush.db?mode=rwc": BackendSQLite,
	}
	for url, want := range cases {
		if got := BackendFor(url); got != want {
			t.Fatalf("BackendFor(%q)=%q want %q", url, got, want)
		}
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(" SQLite ")
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, b)

	_, err = ParseBackend("mysql")
	require.Error(t, err)
}

func TestMigrate_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	n, err := Migrate(ctx, db, BackendSQLite)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = Migrate(ctx, db, BackendSQLite)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMigrate_UnknownBackend(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(ctx, db, Backend("oracle"))
	require.Error(t, err)
}

func TestMigrate_PropagatesGooseError(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	gooseUp = func(context.Context, *goose.Provider) ([]*goose.MigrationResult, error) {
		return nil, errors.New("boom")
	}
	defer func() { gooseUp = orig }()

	_, err = Migrate(ctx, db, BackendSQLite)
	require.ErrorContains(t, err, "boom")
}

func TestUniqueViolation_SQLite(t *testing.T) {
	_, exec := openMigrated(t)

	insert := `INSERT INTO users (username, password_hash, joined_at) VALUES (?, 'x', 1)`
	require.NoError(t, exec(insert, "alice"))

	err := exec(insert, "alice")
	require.Error(t, err)

	c, ok := UniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, "users.username", c)
	require.False(t, IsForeignKeyViolation(err))
}

func TestForeignKeyViolation_SQLite(t *testing.T) {
	_, exec := openMigrated(t)

	require.NoError(t, exec(`INSERT INTO users (username, password_hash, joined_at) VALUES ('alice', 'x', 1)`))

	err := exec(`INSERT INTO messages (id, from_username, to_username, body, sent_at) VALUES ('m1', 'alice', 'ghost', 'hi', 1)`)
	require.Error(t, err)
	require.True(t, IsForeignKeyViolation(err))

	_, ok := UniqueViolation(err)
	require.False(t, ok)
}

func TestClassify_ForeignErrors(t *testing.T) {
	err := errors.New("plain")
	_, ok := UniqueViolation(err)
	require.False(t, ok)
	require.False(t, IsForeignKeyViolation(err))
	require.False(t, IsForeignKeyViolation(nil))
}

func TestWithSQLitePragmas(t *testing.T) {
	require.Equal(t, "file:x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", withSQLitePragmas("file:x.db"))
	require.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", withSQLitePragmas("file:x.db?mode=rwc"))
	require.Equal(t, "x.db?_pragma=foreign_keys(0)", withSQLitePragmas("x.db?_pragma=foreign_keys(0)"))
}
