package messages

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
type PostgresStore struct {
	pool     *pgxpool.Pool
	messages string
	users    string
}

// NewPostgresStore constructs a PostgresStore over pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("messages: nil pool")
	}
	return &PostgresStore{
		pool:     pool,
		messages: storage.PGTable("messages"),
		users:    storage.PGTable("users"),
	}, nil
}

func (s *PostgresStore) Send(ctx context.Context, in SendInput) (Message, error) {
	const op = "messages.Send"

	m, err := prepareSend(in, storage.Timestamp(in.Now))
	if err != nil {
		return Message{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.messages+` (id, from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.FromUsername, m.ToUsername, m.Body, m.SentAt,
	)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Message{}, apperr.NotFoundError{Op: op, Resource: "user"}
		}
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Detail, error) {
	const op = "messages.Get"

	id, err := canonicalID(op, id)
	if err != nil {
		return Detail{}, err
	}

	var d Detail
	err = s.pool.QueryRow(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        f.first_name, f.last_name, f.phone,
		        t.first_name, t.last_name, t.phone
		   FROM `+s.messages+` m
		   JOIN `+s.users+` f ON f.username = m.from_username
		   JOIN `+s.users+` t ON t.username = m.to_username
		  WHERE m.id = $1`, id,
	).Scan(
		&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &d.SentAt, &d.ReadAt,
		&d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, apperr.NotFoundError{Op: op, Resource: "message"}
		}
		return Detail{}, fmt.Errorf("%s: %w", op, err)
	}

	d.Message = utc(d.Message)
	d.FromUser.Username = d.FromUsername
	d.ToUser.Username = d.ToUsername
	return d, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id string, now time.Time) (Message, error) {
	const op = "messages.MarkRead"

	id, err := canonicalID(op, id)
	if err != nil {
		return Message{}, err
	}

	var m Message
	err = s.pool.QueryRow(ctx,
		`UPDATE `+s.messages+` SET read_at = COALESCE(read_at, $2)
		  WHERE id = $1
		  RETURNING id, from_username, to_username, body, sent_at, read_at`,
		id, storage.Timestamp(now),
	).Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt, &m.ReadAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFoundError{Op: op, Resource: "message"}
		}
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return utc(m), nil
}

func (s *PostgresStore) ListFrom(ctx context.Context, username string) ([]Sent, error) {
	const op = "messages.ListFrom"

	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        t.first_name, t.last_name, t.phone
		   FROM `+s.messages+` m
		   JOIN `+s.users+` t ON t.username = m.to_username
		  WHERE m.from_username = $1
		  ORDER BY m.sent_at DESC, m.id DESC`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sent, error) {
		var e Sent
		err := row.Scan(
			&e.ID, &e.FromUsername, &e.ToUsername, &e.Body, &e.SentAt, &e.ReadAt,
			&e.ToUser.FirstName, &e.ToUser.LastName, &e.ToUser.Phone,
		)
		e.Message = utc(e.Message)
		e.ToUser.Username = e.ToUsername
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		out = []Sent{}
	}
	return out, nil
}

func (s *PostgresStore) ListTo(ctx context.Context, username string) ([]Received, error) {
	const op = "messages.ListTo"

	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        f.first_name, f.last_name, f.phone
		   FROM `+s.messages+` m
		   JOIN `+s.users+` f ON f.username = m.from_username
		  WHERE m.to_username = $1
		  ORDER BY m.sent_at DESC, m.id DESC`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Received, error) {
		var e Received
		err := row.Scan(
			&e.ID, &e.FromUsername, &e.ToUsername, &e.Body, &e.SentAt, &e.ReadAt,
			&e.FromUser.FirstName, &e.FromUser.LastName, &e.FromUser.Phone,
		)
		e.Message = utc(e.Message)
		e.FromUser.Username = e.FromUsername
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		out = []Received{}
	}
	return out, nil
}

func utc(m Message) Message {
	m.SentAt = m.SentAt.UTC()
	if m.ReadAt != nil {
		r := m.ReadAt.UTC()
		m.ReadAt = &r
	}
	return m
}
