package messages

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hush/cmd/identity"
	"hush/cmd/identity/ids"
	"hush/cmd/internal/storage"
)

// Opt-in: requires HUSH_TEST_DATABASE_URL.
func TestPostgresStore_Contract(t *testing.T) {
	raw := strings.TrimSpace(os.Getenv("HUSH_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: HUSH_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, storage.PostgresConfig{URL: raw})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = storage.MigratePool(ctx, pool)
	require.NoError(t, err)

	users, err := identity.NewPostgresStore(pool)
	require.NoError(t, err)
	st, err := NewPostgresStore(pool)
	require.NoError(t, err)

	id, err := ids.NewULID(time.Now())
	require.NoError(t, err)
	suffix := strings.ToLower(id)
	name := func(s string) string { return s + "_" + suffix }

	seedUsers(t, users, name)
	runStoreContract(t, st, name)
}
