package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hush/cmd/internal/apperr"
)

// runStoreContract exercises the behavior every Store implementation must share.
// name makes usernames unique when the backing database is shared between runs.
func runStoreContract(t *testing.T, st Store, name func(string) string) {
	t.Helper()
	ctx := context.Background()
	joined := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	bob, carol := name("bob"), name("carol")

	t.Run("create and get", func(t *testing.T) {
		u, err := st.CreateUser(ctx, CreateUserInput{
			Username:     carol,
			PasswordHash: "$argon2id$fake",
			FirstName:    "Carol",
			LastName:     "C",
			Phone:        "555-0003",
			Now:          joined,
		})
		require.NoError(t, err)
		require.Equal(t, carol, u.Username)
		require.Equal(t, joined.Truncate(time.Microsecond), u.JoinedAt)

		got, err := st.GetUser(ctx, carol)
		require.NoError(t, err)
		require.Equal(t, u, got)
		require.Nil(t, got.LastLoginAt)

		hash, err := st.PasswordHash(ctx, carol)
		require.NoError(t, err)
		require.Equal(t, "$argon2id$fake", hash)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := st.CreateUser(ctx, CreateUserInput{Username: bob, PasswordHash: "h1", Now: joined})
		require.NoError(t, err)

		_, err = st.CreateUser(ctx, CreateUserInput{Username: bob, PasswordHash: "h2", Now: joined})
		require.True(t, apperr.IsConflict(err), "got %v", err)

		var ce apperr.ConflictError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "username", ce.Field)
	})

	t.Run("touch login", func(t *testing.T) {
		at := joined.Add(time.Hour)
		require.NoError(t, st.TouchLogin(ctx, carol, at))

		got, err := st.GetUser(ctx, carol)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		require.True(t, got.LastLoginAt.Equal(at.Truncate(time.Microsecond)))
	})

	t.Run("missing user", func(t *testing.T) {
		ghost := name("ghost")

		_, err := st.GetUser(ctx, ghost)
		require.True(t, apperr.IsNotFound(err), "got %v", err)

		_, err = st.PasswordHash(ctx, ghost)
		require.True(t, apperr.IsNotFound(err), "got %v", err)

		err = st.TouchLogin(ctx, ghost, joined)
		require.True(t, apperr.IsNotFound(err), "got %v", err)
	})

	t.Run("list is ordered by username", func(t *testing.T) {
		all, err := st.ListUsers(ctx)
		require.NoError(t, err)

		pos := map[string]int{}
		for i, u := range all {
			pos[u.Username] = i
			if i > 0 {
				require.Less(t, all[i-1].Username, u.Username)
			}
		}
		require.Contains(t, pos, bob)
		require.Contains(t, pos, carol)
		require.Less(t, pos[bob], pos[carol])
	})
}
