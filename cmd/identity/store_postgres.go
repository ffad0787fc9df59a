package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hush/cmd/internal/apperr"
	"hush/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Table identifiers are schema-qualified and quoted once at construction.
type PostgresStore struct {
	pool  *pgxpool.Pool
	users string
}

// NewPostgresStore constructs a PostgresStore over pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool, users: storage.PGTable("users")}, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	now := storage.Timestamp(in.Now)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users+` (
		     username, password_hash, first_name, last_name, phone, joined_at
		   ) VALUES ($1, $2, $3, $4, $5, $6)`,
		in.Username, in.PasswordHash, in.FirstName, in.LastName, in.Phone, now,
	)
	if err != nil {
		if _, ok := storage.UniqueViolation(err); ok {
			return User{}, apperr.ConflictError{Op: op, Field: "username"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	return User{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		JoinedAt:  now,
	}, nil
}

func (s *PostgresStore) PasswordHash(ctx context.Context, username string) (string, error) {
	const op = "identity.PasswordHash"

	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM `+s.users+` WHERE username = $1`, username,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

func (s *PostgresStore) TouchLogin(ctx context.Context, username string, at time.Time) error {
	const op = "identity.TouchLogin"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.users+` SET last_login_at = $2 WHERE username = $1`,
		username, storage.Timestamp(at),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (User, error) {
	const op = "identity.GetUser"

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT username, first_name, last_name, phone, joined_at, last_login_at
		   FROM `+s.users+` WHERE username = $1`, username,
	).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.JoinedAt = u.JoinedAt.UTC()
	if u.LastLoginAt != nil {
		t := u.LastLoginAt.UTC()
		u.LastLoginAt = &t
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]UserSummary, error) {
	const op = "identity.ListUsers"

	rows, err := s.pool.Query(ctx,
		`SELECT username, first_name, last_name FROM `+s.users+` ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]UserSummary, 0)
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
