package messages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hush/cmd/identity"
	"hush/cmd/internal/apperr"
)

// runStoreContract exercises behavior shared by every Store. users must already
// contain name("alice"), name("bob") and name("carol").
func runStoreContract(t *testing.T, st Store, name func(string) string) {
	t.Helper()
	ctx := context.Background()
	alice, bob, carol := name("alice"), name("bob"), name("carol")
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	t.Run("send and get", func(t *testing.T) {
		m, err := st.Send(ctx, SendInput{From: alice, To: strings.ToUpper(bob), Body: "  hi bob  ", Now: t0})
		require.NoError(t, err)
		require.Len(t, m.ID, 26)
		require.Equal(t, alice, m.FromUsername)
		require.Equal(t, bob, m.ToUsername)
		require.Equal(t, "hi bob", m.Body)
		require.True(t, m.SentAt.Equal(t0))
		require.Nil(t, m.ReadAt)

		d, err := st.Get(ctx, strings.ToLower(m.ID))
		require.NoError(t, err)
		require.Equal(t, m.ID, d.ID)
		require.Equal(t, "hi bob", d.Body)
		require.Equal(t, alice, d.FromUser.Username)
		require.Equal(t, "Alice", d.FromUser.FirstName)
		require.Equal(t, "555-0001", d.FromUser.Phone)
		require.Equal(t, bob, d.ToUser.Username)
		require.Equal(t, "Bob", d.ToUser.FirstName)
		require.Nil(t, d.ReadAt)
	})

	t.Run("unknown parties", func(t *testing.T) {
		_, err := st.Send(ctx, SendInput{From: alice, To: name("ghost"), Body: "anyone?", Now: t0})
		require.True(t, apperr.IsNotFound(err), "got %v", err)

		_, err = st.Send(ctx, SendInput{From: name("ghost"), To: alice, Body: "boo", Now: t0})
		require.True(t, apperr.IsNotFound(err), "got %v", err)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []SendInput{
			{From: alice, To: alice, Body: "note to self"},
			{From: alice, To: bob, Body: "   "},
			{From: alice, To: bob, Body: strings.Repeat("x", MaxBodyLen+1)},
			{From: alice, To: "not valid!", Body: "hi"},
		}
		for _, in := range cases {
			_, err := st.Send(ctx, in)
			require.True(t, apperr.IsInvalidInput(err), "input %+v: got %v", in.To, err)
		}

		_, err := st.Send(ctx, SendInput{From: alice, To: bob, Body: strings.Repeat("é", MaxBodyLen), Now: t0})
		require.NoError(t, err)
	})

	t.Run("mark read is set once", func(t *testing.T) {
		m, err := st.Send(ctx, SendInput{From: carol, To: alice, Body: "read me", Now: t0})
		require.NoError(t, err)

		first := t0.Add(time.Minute)
		r1, err := st.MarkRead(ctx, m.ID, first)
		require.NoError(t, err)
		require.NotNil(t, r1.ReadAt)
		require.True(t, r1.ReadAt.Equal(first))

		r2, err := st.MarkRead(ctx, m.ID, first.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, r2.ReadAt)
		require.True(t, r2.ReadAt.Equal(first), "read_at changed on repeat: %v", r2.ReadAt)

		d, err := st.Get(ctx, m.ID)
		require.NoError(t, err)
		require.True(t, d.ReadAt.Equal(first))
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		for _, id := range []string{"01J0000000000000000000000Z", "nope", ""} {
			_, err := st.Get(ctx, id)
			require.True(t, apperr.IsNotFound(err), "Get(%q): %v", id, err)

			_, err = st.MarkRead(ctx, id, t0)
			require.True(t, apperr.IsNotFound(err), "MarkRead(%q): %v", id, err)
		}
	})

	t.Run("lists are newest first", func(t *testing.T) {
		base := t0.Add(24 * time.Hour)
		a, err := st.Send(ctx, SendInput{From: bob, To: carol, Body: "one", Now: base})
		require.NoError(t, err)
		b, err := st.Send(ctx, SendInput{From: bob, To: carol, Body: "two", Now: base.Add(time.Second)})
		require.NoError(t, err)
		c, err := st.Send(ctx, SendInput{From: bob, To: alice, Body: "three", Now: base.Add(2 * time.Second)})
		require.NoError(t, err)

		sent, err := st.ListFrom(ctx, bob)
		require.NoError(t, err)
		require.Len(t, sent, 3)
		require.Equal(t, []string{c.ID, b.ID, a.ID}, []string{sent[0].ID, sent[1].ID, sent[2].ID})
		require.Equal(t, alice, sent[0].ToUser.Username)
		require.Equal(t, "Alice", sent[0].ToUser.FirstName)
		require.Equal(t, carol, sent[1].ToUser.Username)

		got, err := st.ListTo(ctx, carol)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, b.ID, got[0].ID)
		require.Equal(t, a.ID, got[1].ID)
		require.Equal(t, bob, got[0].FromUser.Username)
		require.Equal(t, "Bob", got[0].FromUser.FirstName)
	})

	t.Run("ties break by id", func(t *testing.T) {
		at := t0.Add(48 * time.Hour)
		var want []string
		for i := 0; i < 3; i++ {
			m, err := st.Send(ctx, SendInput{From: carol, To: bob, Body: "tie", Now: at})
			require.NoError(t, err)
			want = append(want, m.ID)
		}

		got, err := st.ListFrom(ctx, carol)
		require.NoError(t, err)

		var ties []string
		for _, m := range got {
			if m.SentAt.Equal(at) {
				ties = append(ties, m.ID)
			}
		}
		require.Len(t, ties, 3)
		require.ElementsMatch(t, want, ties)
		for i := 1; i < len(ties); i++ {
			require.Greater(t, ties[i-1], ties[i])
		}
	})

	t.Run("empty lists are not nil", func(t *testing.T) {
		lonely := name("lonely")
		sent, err := st.ListFrom(ctx, lonely)
		require.NoError(t, err)
		require.NotNil(t, sent)
		require.Empty(t, sent)

		got, err := st.ListTo(ctx, lonely)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})
}

func seedUsers(t *testing.T, users identity.Store, name func(string) string) {
	t.Helper()
	ctx := context.Background()

	for i, u := range []struct{ username, first string }{
		{"alice", "Alice"}, {"bob", "Bob"}, {"carol", "Carol"},
	} {
		_, err := users.CreateUser(ctx, identity.CreateUserInput{
			Username:     name(u.username),
			PasswordHash: "$argon2id$unused",
			FirstName:    u.first,
			Phone:        "555-000" + string(rune('1'+i)),
		})
		require.NoError(t, err)
	}
}
