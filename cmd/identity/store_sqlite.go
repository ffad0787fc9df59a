package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hush/cmd/internal/apperr"
	"hush/cmd/internal/storage"
)

// SQLiteStore implements Store over an embedded SQLite database.
// Timestamps are stored as unix microseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db. The caller owns db and must have applied migrations.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("identity: nil db")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	now := storage.Timestamp(in.Now)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name, phone, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Username, in.PasswordHash, in.FirstName, in.LastName, in.Phone, now.UnixMicro(),
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

func (s *SQLiteStore) PasswordHash(ctx context.Context, username string) (string, error) {
	const op = "identity.PasswordHash"

	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

func (s *SQLiteStore) TouchLogin(ctx context.Context, username string, at time.Time) error {
	const op = "identity.TouchLogin"

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE username = ?`,
		storage.Timestamp(at).UnixMicro(), username,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return apperr.NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, username string) (User, error) {
	const op = "identity.GetUser"

	var (
		u         User
		joined    int64
		lastLogin sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, first_name, last_name, phone, joined_at, last_login_at
		   FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &joined, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.JoinedAt = time.UnixMicro(joined).UTC()
	if lastLogin.Valid {
		t := time.UnixMicro(lastLogin.Int64).UTC()
		u.LastLoginAt = &t
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]UserSummary, error) {
	const op = "identity.ListUsers"

	rows, err := s.db.QueryContext(ctx,
		`SELECT username, first_name, last_name FROM users ORDER BY username ASC`)
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
