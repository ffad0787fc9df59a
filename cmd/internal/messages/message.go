package messages

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"hush/cmd/identity"
	"hush/cmd/identity/ids"
	"hush/cmd/internal/apperr"
)

// MaxBodyLen is the maximum message body length in characters.
const MaxBodyLen = 4000

// Message is a directed message. Parties never change after Send.
type Message struct {
	ID           string
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// Party is the public view of a message participant.
type Party struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// Detail is a message with both parties expanded.
type Detail struct {
	Message
	FromUser Party
	ToUser   Party
}

// Sent is an outbox entry with the recipient expanded.
type Sent struct {
	Message
	ToUser Party
}

// Received is an inbox entry with the sender expanded.
type Received struct {
	Message
	FromUser Party
}

// SendInput describes a new message.
type SendInput struct {
	From string
	To   string
	Body string
	Now  time.Time
}

// Store persists messages.
//
// Missing parties on Send and missing messages on Get/MarkRead are
// apperr.NotFoundError. List methods return an empty slice, never nil.
type Store interface {
	Send(ctx context.Context, in SendInput) (Message, error)
	Get(ctx context.Context, id string) (Detail, error)
	MarkRead(ctx context.Context, id string, now time.Time) (Message, error)
	ListFrom(ctx context.Context, username string) ([]Sent, error)
	ListTo(ctx context.Context, username string) ([]Received, error)
}

// prepareSend canonicalizes and validates in, assigning the id and timestamp.
func prepareSend(in SendInput, now time.Time) (Message, error) {
	const op = "messages.Send"

	from := identity.NormalizeUsername(in.From)
	to := identity.NormalizeUsername(in.To)
	if !identity.ValidUsername(from) {
		return Message{}, apperr.Invalid(op, "invalid sender")
	}
	if !identity.ValidUsername(to) {
		return Message{}, apperr.Invalid(op, "to_username is invalid")
	}
	if from == to {
		return Message{}, apperr.Invalid(op, "cannot send a message to yourself")
	}

	body := strings.TrimSpace(in.Body)
	if body == "" {
		return Message{}, apperr.Invalid(op, "body is required")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return Message{}, apperr.Invalid(op, "body is too long")
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:           id,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       now,
	}, nil
}

// canonicalID validates a message id from untrusted input.
func canonicalID(op, id string) (string, error) {
	c, ok := ids.CanonicalULID(id)
	if !ok {
		return "", apperr.NotFoundError{Op: op, Resource: "message"}
	}
	return c, nil
}
