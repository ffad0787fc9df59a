package messages

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
		return nil, fmt.Errorf("messages: nil db")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Send(ctx context.Context, in SendInput) (Message, error) {
	const op = "messages.Send"

	m, err := prepareSend(in, storage.Timestamp(in.Now))
	if err != nil {
		return Message{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, from_username, to_username, body, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.FromUsername, m.ToUsername, m.Body, m.SentAt.UnixMicro(),
	)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Message{}, apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Detail, error) {
	const op = "messages.Get"

	id, err := canonicalID(op, id)
	if err != nil {
		return Detail{}, err
	}

	var (
		d      Detail
		sent   int64
		readAt sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        f.first_name, f.last_name, f.phone,
		        t.first_name, t.last_name, t.phone
		   FROM messages m
		   JOIN users f ON f.username = m.from_username
		   JOIN users t ON t.username = m.to_username
		  WHERE m.id = ?`, id,
	).Scan(
		&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &sent, &readAt,
		&d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, apperr.NotFoundError{Op: op, Resource: "message"}
		}
		return Detail{}, fmt.Errorf("%s: %w", op, err)
	}

	d.SentAt, d.ReadAt = fromMicros(sent, readAt)
	d.FromUser.Username = d.FromUsername
	d.ToUser.Username = d.ToUsername
	return d, nil
}

func (s *SQLiteStore) MarkRead(ctx context.Context, id string, now time.Time) (Message, error) {
	const op = "messages.MarkRead"

	id, err := canonicalID(op, id)
	if err != nil {
		return Message{}, err
	}

	var (
		m      Message
		sent   int64
		readAt sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx,
		`UPDATE messages SET read_at = COALESCE(read_at, ?)
		  WHERE id = ?
		  RETURNING id, from_username, to_username, body, sent_at, read_at`,
		storage.Timestamp(now).UnixMicro(), id,
	).Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &sent, &readAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Message{}, apperr.NotFoundError{Op: op, Resource: "message"}
		}
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}

	m.SentAt, m.ReadAt = fromMicros(sent, readAt)
	return m, nil
}

func (s *SQLiteStore) ListFrom(ctx context.Context, username string) ([]Sent, error) {
	const op = "messages.ListFrom"

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        t.first_name, t.last_name, t.phone
		   FROM messages m
		   JOIN users t ON t.username = m.to_username
		  WHERE m.from_username = ?
		  ORDER BY m.sent_at DESC, m.id DESC`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]Sent, 0)
	for rows.Next() {
		var (
			e      Sent
			sent   int64
			readAt sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.FromUsername, &e.ToUsername, &e.Body, &sent, &readAt,
			&e.ToUser.FirstName, &e.ToUser.LastName, &e.ToUser.Phone,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.SentAt, e.ReadAt = fromMicros(sent, readAt)
		e.ToUser.Username = e.ToUsername
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *SQLiteStore) ListTo(ctx context.Context, username string) ([]Received, error) {
	const op = "messages.ListTo"

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        f.first_name, f.last_name, f.phone
		   FROM messages m
		   JOIN users f ON f.username = m.from_username
		  WHERE m.to_username = ?
		  ORDER BY m.sent_at DESC, m.id DESC`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]Received, 0)
	for rows.Next() {
		var (
			e      Received
			sent   int64
			readAt sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.FromUsername, &e.ToUsername, &e.Body, &sent, &readAt,
			&e.FromUser.FirstName, &e.FromUser.LastName, &e.FromUser.Phone,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.SentAt, e.ReadAt = fromMicros(sent, readAt)
		e.FromUser.Username = e.FromUsername
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func fromMicros(sent int64, readAt sql.NullInt64) (time.Time, *time.Time) {
	s := time.UnixMicro(sent).UTC()
	if !readAt.Valid {
		return s, nil
	}
	r := time.UnixMicro(readAt.Int64).UTC()
	return s, &r
}
