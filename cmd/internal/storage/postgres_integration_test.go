package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Opt-in: requires HUSH_TEST_DATABASE_URL.
func TestMigratePool_LeavesPoolUsable(t *testing.T) {
	raw := strings.TrimSpace(os.Getenv("HUSH_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: HUSH_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, PostgresConfig{URL: raw})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = MigratePool(ctx, pool)
	require.NoError(t, err)

	// Up to date, and the handle closed by the first run did not take the pool with it.
	applied, err := MigratePool(ctx, pool)
	require.NoError(t, err)
	require.Zero(t, applied)

	require.NoError(t, PingPool(ctx, pool, 5*time.Second))
	var one int
	require.NoError(t, pool.QueryRow(ctx, "SELECT 1").Scan(&one))
	require.Equal(t, 1, one)
}
