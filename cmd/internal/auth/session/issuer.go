package session

import (
	"fmt"
	"strings"
	"time"

	"hush/cmd/identity"
	"hush/cmd/internal/apperr"
)

// Issuer mints tokens for verified usernames and recovers usernames from tokens.
// It is the single trust boundary for authenticated requests.
type Issuer struct {
	mgr TokenManager
	now func() time.Time
}

// NewIssuer validates cfg and builds the TokenManager for its format.
func NewIssuer(cfg Config) (*Issuer, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	var (
		mgr TokenManager
		err error
	)
	switch cfg.Format {
	case FormatPaseto:
		mgr, err = NewPasetoV4PublicManager(cfg)
	default:
		mgr, err = NewJWTManager(cfg)
	}
	if err != nil {
		return nil, err
	}

	return &Issuer{mgr: mgr, now: func() time.Time { return time.Now().UTC() }}, nil
}

// KeyID identifies the active key in logs.
func (i *Issuer) KeyID() string { return i.mgr.KeyID() }

// Issue signs a token whose subject is username. Callers issue only after a
// successful authentication.
func (i *Issuer) Issue(username string) (string, error) {
	username = identity.NormalizeUsername(username)
	if !identity.ValidUsername(username) {
		return "", apperr.Invalid("session.Issue", "invalid username")
	}

	tok, err := i.mgr.Issue(username, i.now())
	if err != nil {
		return "", fmt.Errorf("session.Issue: %w", err)
	}
	return tok, nil
}

// Verify returns the username bound to tok, or apperr.UnauthorizedError for absent,
// malformed, tampered, wrongly-signed or expired tokens.
func (i *Issuer) Verify(tok string) (string, error) {
	const op = "session.Verify"

	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", apperr.UnauthorizedError{Op: op, Reason: "missing token"}
	}

	claims, err := i.mgr.Verify(tok, i.now())
	if err != nil {
		return "", apperr.UnauthorizedError{Op: op, Reason: err.Error()}
	}

	username := identity.NormalizeUsername(claims.Username)
	if username != claims.Username || !identity.ValidUsername(username) {
		return "", apperr.UnauthorizedError{Op: op, Reason: "bad subject"}
	}
	return username, nil
}
