package messages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hush/cmd/identity"
	"hush/cmd/internal/storage"
)

func TestSQLiteStore_Contract(t *testing.T) {
	ctx := context.Background()

	db, err := storage.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = storage.Migrate(ctx, db, storage.BackendSQLite)
	require.NoError(t, err)

	users, err := identity.NewSQLiteStore(db)
	require.NoError(t, err)
	st, err := NewSQLiteStore(db)
	require.NoError(t, err)

	same := func(s string) string { return s }
	seedUsers(t, users, same)
	runStoreContract(t, st, same)
}
