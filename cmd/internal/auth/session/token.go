package session

import "time"

// Claims is what a verified token says about its bearer.
type Claims struct {
	Username  string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// TokenManager signs and verifies tokens in one concrete format.
type TokenManager interface {
	Issue(username string, now time.Time) (string, error)
	Verify(token string, now time.Time) (Claims, error)
	// KeyID is a log-safe fingerprint of the verification key.
	KeyID() string
}
