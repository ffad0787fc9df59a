package identity

import (
	"context"
	"time"
)

// User is a hush principal as seen outside the credential store.
type User struct {
	Username    string
	FirstName   string
	LastName    string
	Phone       string
	JoinedAt    time.Time
	LastLoginAt *time.Time
}

// UserSummary is the public directory entry for a user.
type UserSummary struct {
	Username  string
	FirstName string
	LastName  string
}

// CreateUserInput is a validated, already-hashed registration.
type CreateUserInput struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Now          time.Time
}

// Store is the credential persistence boundary.
//
// Implementations map a duplicate username to apperr.ConflictError{Field: "username"}
// and a missing user to apperr.NotFoundError{Resource: "user"}.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	PasswordHash(ctx context.Context, username string) (string, error)
	TouchLogin(ctx context.Context, username string, at time.Time) error
	GetUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]UserSummary, error)
}
