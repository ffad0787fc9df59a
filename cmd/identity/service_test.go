package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hush/cmd/internal/apperr"
	"hush/cmd/security/password"
)

func testPasswordConfig() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func newTestService(t *testing.T) (*Service, *SQLiteStore) {
	t.Helper()

	st, err := NewSQLiteStore(newSQLiteDB(t))
	require.NoError(t, err)

	svc, err := NewService(st, testPasswordConfig())
	require.NoError(t, err)
	return svc, st
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username:  "  Alice ",
		Password:  "correct horse battery",
		FirstName: "Alice",
		LastName:  "A",
		Phone:     "555-0001",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Nil(t, u.LastLoginAt)

	ok, err := svc.Authenticate(ctx, "ALICE", "correct horse battery")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Authenticate(ctx, "alice", "wrong horse battery")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Authenticate_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"nobody", "", "not a valid name!"} {
		ok, err := svc.Authenticate(ctx, name, "whatever password")
		require.NoError(t, err, name)
		require.False(t, ok, name)
	}
}

func TestService_Register_DuplicateIsConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "password one!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "BOB", Password: "password two!"})
	require.True(t, apperr.IsConflict(err), "got %v", err)
	require.Equal(t, "username already exists", apperr.PublicMessage(err))

	// The first registration's password still wins.
	ok, err := svc.Authenticate(ctx, "bob", "password one!")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"empty username", RegisterInput{Username: "  ", Password: "long enough pw"}},
		{"bad characters", RegisterInput{Username: "al ice", Password: "long enough pw"}},
		{"username too long", RegisterInput{Username: strings.Repeat("a", 65), Password: "long enough pw"}},
		{"short password", RegisterInput{Username: "dave", Password: "short"}},
		{"long first name", RegisterInput{Username: "erin", Password: "long enough pw", FirstName: strings.Repeat("x", 101)}},
		{"long phone", RegisterInput{Username: "frank", Password: "long enough pw", Phone: strings.Repeat("5", 33)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			require.True(t, apperr.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestService_PasswordIsStoredHashed(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "correct horse battery"})
	require.NoError(t, err)

	hash, err := st.PasswordHash(ctx, "alice")
	require.NoError(t, err)
	require.NotContains(t, hash, "correct horse battery")
	require.True(t, strings.HasPrefix(hash, "$argon2id$"), hash)
}

func TestService_VerifiesLegacyBcryptHashes(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	legacy := password.DefaultConfig()
	legacy.Algorithm = password.AlgorithmBcrypt
	legacy.BcryptCost = 4
	hash, err := legacy.Hash("imported password")
	require.NoError(t, err)

	_, err = st.CreateUser(ctx, CreateUserInput{Username: "legacy", PasswordHash: hash})
	require.NoError(t, err)

	ok, err := svc.Authenticate(ctx, "legacy", "imported password")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_RecordLoginAndProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	joined := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "correct horse battery", Phone: "555", Now: joined})
	require.NoError(t, err)

	login := joined.Add(2 * time.Hour)
	require.NoError(t, svc.RecordLogin(ctx, "Alice", login))

	u, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "555", u.Phone)
	require.True(t, u.JoinedAt.Equal(joined))
	require.NotNil(t, u.LastLoginAt)
	require.True(t, u.LastLoginAt.Equal(login))

	err = svc.RecordLogin(ctx, "ghost", login)
	require.True(t, apperr.IsNotFound(err), "got %v", err)

	_, err = svc.GetProfile(ctx, "ghost")
	require.True(t, apperr.IsNotFound(err), "got %v", err)
}

func TestService_ListProfiles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := svc.Register(ctx, RegisterInput{Username: name, Password: "long enough pw", FirstName: strings.ToUpper(name[:1])})
		require.NoError(t, err)
	}

	got, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []UserSummary{
		{Username: "alice", FirstName: "A"},
		{Username: "bob", FirstName: "B"},
		{Username: "carol", FirstName: "C"},
	}, got)
}

func TestNewService_RejectsBadConfig(t *testing.T) {
	st, err := NewSQLiteStore(newSQLiteDB(t))
	require.NoError(t, err)

	bad := testPasswordConfig()
	bad.Algorithm = "md5"
	_, err = NewService(st, bad)
	require.Error(t, err)

	_, err = NewService(nil, testPasswordConfig())
	require.Error(t, err)
}

func TestValidUsername(t *testing.T) {
	for _, ok := range []string{"a", "alice", "bob_2", "c.d-e", strings.Repeat("z", 64)} {
		require.True(t, ValidUsername(ok), ok)
	}
	for _, bad := range []string{"", "Alice", "al ice", "a/b", "émile", strings.Repeat("z", 65)} {
		require.False(t, ValidUsername(bad), bad)
	}
	require.Equal(t, "alice", NormalizeUsername("  ALICE\t"))
}
