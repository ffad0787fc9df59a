// Package access decides who may see what.
//
// The predicates are pure functions of the requester and the record. Guard wraps
// them around the stores: it fetches, authorizes, and only then returns data, so a
// denied request never carries message content.
package access

import (
	"context"
	"time"

	"hush/cmd/identity"
	"hush/cmd/internal/apperr"
	"hush/cmd/internal/messages"
	"hush/cmd/internal/storage"
)

// CanView reports whether requester is a party (sender or recipient) of m.
func CanView(requester string, m messages.Message) bool {
	if requester == "" {
		return false
	}
	return requester == m.FromUsername || requester == m.ToUsername
}

// CanMarkRead reports whether requester is the recipient of m.
func CanMarkRead(requester string, m messages.Message) bool {
	return requester != "" && requester == m.ToUsername
}

// CanAccessMailbox reports whether requester may see owner's profile detail and
// message lists.
func CanAccessMailbox(requester, owner string) bool {
	return requester != "" && requester == owner
}

// Profiles is the slice of the credential store the guard needs.
type Profiles interface {
	GetProfile(ctx context.Context, username string) (identity.User, error)
}

// Guard enforces the predicates above in front of the stores.
type Guard struct {
	users Profiles
	msgs  messages.Store
}

// NewGuard builds a Guard over the given stores.
func NewGuard(users Profiles, msgs messages.Store) *Guard {
	return &Guard{users: users, msgs: msgs}
}

// ViewMessage returns message id if requester is one of its parties.
func (g *Guard) ViewMessage(ctx context.Context, requester, id string) (messages.Detail, error) {
	const op = "access.ViewMessage"
	requester = identity.NormalizeUsername(requester)

	d, err := g.msgs.Get(ctx, id)
	if err != nil {
		return messages.Detail{}, err
	}
	if !CanView(requester, d.Message) {
		return messages.Detail{}, apperr.UnauthorizedError{Op: op, Reason: "not a party"}
	}
	return d, nil
}

// MarkRead marks message id read if requester is its recipient. first is true
// only for the call whose timestamp was stored; repeats return the original
// read_at with first false.
func (g *Guard) MarkRead(ctx context.Context, requester, id string, now time.Time) (m messages.Message, first bool, err error) {
	const op = "access.MarkRead"
	requester = identity.NormalizeUsername(requester)

	d, err := g.msgs.Get(ctx, id)
	if err != nil {
		return messages.Message{}, false, err
	}
	if !CanMarkRead(requester, d.Message) {
		return messages.Message{}, false, apperr.UnauthorizedError{Op: op, Reason: "not the recipient"}
	}
	if m, err = g.msgs.MarkRead(ctx, d.ID, now); err != nil {
		return messages.Message{}, false, err
	}
	first = d.ReadAt == nil && m.ReadAt != nil && m.ReadAt.Equal(storage.Timestamp(now))
	return m, first, nil
}

// Sent lists owner's outbox for owner only.
func (g *Guard) Sent(ctx context.Context, requester, owner string) ([]messages.Sent, error) {
	requester, owner = identity.NormalizeUsername(requester), identity.NormalizeUsername(owner)
	if !CanAccessMailbox(requester, owner) {
		return nil, apperr.UnauthorizedError{Op: "access.Sent", Reason: "not the owner"}
	}
	return g.msgs.ListFrom(ctx, owner)
}

// Received lists owner's inbox for owner only.
func (g *Guard) Received(ctx context.Context, requester, owner string) ([]messages.Received, error) {
	requester, owner = identity.NormalizeUsername(requester), identity.NormalizeUsername(owner)
	if !CanAccessMailbox(requester, owner) {
		return nil, apperr.UnauthorizedError{Op: "access.Received", Reason: "not the owner"}
	}
	return g.msgs.ListTo(ctx, owner)
}

// Profile returns owner's full profile for owner only.
func (g *Guard) Profile(ctx context.Context, requester, owner string) (identity.User, error) {
	requester, owner = identity.NormalizeUsername(requester), identity.NormalizeUsername(owner)
	if !CanAccessMailbox(requester, owner) {
		return identity.User{}, apperr.UnauthorizedError{Op: "access.Profile", Reason: "not the owner"}
	}
	return g.users.GetProfile(ctx, owner)
}
