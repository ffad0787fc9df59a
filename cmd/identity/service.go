package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"hush/cmd/internal/apperr"
	"hush/cmd/security/password"
)

// RegisterInput describes a registration request.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Now       time.Time
}

// Service implements the credential rules over a Store.
// The password configuration is fixed at construction.
type Service struct {
	store     Store
	pw        password.Config
	dummyHash string
}

// NewService validates pw and prepares the dummy hash used to keep authentication of
// unknown users as expensive as a real verification.
func NewService(store Store, pw password.Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity: nil store")
	}
	if err := pw.Check(); err != nil {
		return nil, err
	}

	dummy, err := pw.Hash(dummyPassword(pw))
	if err != nil {
		return nil, fmt.Errorf("identity: dummy hash: %w", err)
	}

	return &Service{store: store, pw: pw, dummyHash: dummy}, nil
}

// Register creates a user. The password is hashed before the store is touched, and
// a taken username surfaces as the store's uniqueness violation, not a pre-check.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "identity.Register"

	username := NormalizeUsername(in.Username)
	if !ValidUsername(username) {
		return User{}, apperr.Invalid(op, "username must be 1-64 characters of a-z, 0-9, '_', '.' or '-'")
	}

	first, ok := normalizeField(in.FirstName, maxNameLen)
	if !ok {
		return User{}, apperr.Invalid(op, fmt.Sprintf("first_name must be at most %d characters", maxNameLen))
	}
	last, ok := normalizeField(in.LastName, maxNameLen)
	if !ok {
		return User{}, apperr.Invalid(op, fmt.Sprintf("last_name must be at most %d characters", maxNameLen))
	}
	phone, ok := normalizeField(in.Phone, maxPhoneLen)
	if !ok {
		return User{}, apperr.Invalid(op, fmt.Sprintf("phone must be at most %d characters", maxPhoneLen))
	}

	hash, err := s.pw.Hash(in.Password)
	if err != nil {
		if msg, ok := s.policyMessage(err); ok {
			return User{}, apperr.Invalid(op, msg)
		}
		return User{}, fmt.Errorf("%s: hash: %w", op, err)
	}

	return s.store.CreateUser(ctx, CreateUserInput{
		Username:     username,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Phone:        phone,
		Now:          in.Now,
	})
}

// Authenticate reports whether password matches the stored hash for username.
// A missing user returns (false, nil) after a dummy verification of the same cost.
func (s *Service) Authenticate(ctx context.Context, username, pw string) (bool, error) {
	username = NormalizeUsername(username)

	var hash string
	if ValidUsername(username) {
		h, err := s.store.PasswordHash(ctx, username)
		switch {
		case err == nil:
			hash = h
		case apperr.IsNotFound(err):
		default:
			return false, err
		}
	}

	if hash == "" {
		_, _ = s.pw.Verify(s.dummyHash, pw)
		return false, nil
	}

	ok, err := s.pw.Verify(hash, pw)
	if err != nil {
		return false, fmt.Errorf("identity.Authenticate: %w", err)
	}
	return ok, nil
}

// RecordLogin sets last_login_at for username.
func (s *Service) RecordLogin(ctx context.Context, username string, now time.Time) error {
	username = NormalizeUsername(username)
	if !ValidUsername(username) {
		return apperr.NotFoundError{Op: "identity.RecordLogin", Resource: "user"}
	}
	return s.store.TouchLogin(ctx, username, now)
}

// GetProfile returns the user without its password hash.
func (s *Service) GetProfile(ctx context.Context, username string) (User, error) {
	username = NormalizeUsername(username)
	if !ValidUsername(username) {
		return User{}, apperr.NotFoundError{Op: "identity.GetProfile", Resource: "user"}
	}
	return s.store.GetUser(ctx, username)
}

// ListProfiles returns every user ordered by username.
func (s *Service) ListProfiles(ctx context.Context) ([]UserSummary, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) policyMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return fmt.Sprintf("password must be at least %d characters", s.pw.Policy.MinLength), true
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password is too long", true
	case errors.Is(err, password.ErrWeakPassword):
		return "password is too easy to guess", true
	default:
		return "", false
	}
}

func dummyPassword(pw password.Config) string {
	n := pw.Policy.MinLength
	if n < 16 {
		n = 16
	}
	if n > pw.Policy.MaxLength {
		n = pw.Policy.MaxLength
	}
	if pw.Algorithm == password.AlgorithmBcrypt && n > 72 {
		n = 72
	}

	b := make([]byte, (n+1)/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)[:n]
}
