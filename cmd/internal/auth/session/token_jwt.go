package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hush/cmd/security/token"
)

type jwtHS256Manager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	secret    []byte
}

// NewJWTManager builds a TokenManager issuing HS256 JWTs.
func NewJWTManager(cfg Config) (TokenManager, error) {
	if err := token.CheckSecret(cfg.JWTSecret, token.MinSecretBytes); err != nil {
		return nil, ErrConfig
	}

	secret := make([]byte, len(cfg.JWTSecret))
	copy(secret, cfg.JWTSecret)

	return &jwtHS256Manager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
	}, nil
}

func (m *jwtHS256Manager) KeyID() string {
	return "hs256:" + token.KeyFingerprint(m.secret)
}

func (m *jwtHS256Manager) Issue(username string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  username,
		Issuer:   m.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *jwtHS256Manager) Verify(tokenStr string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithIssuedAt(),
	}
	if m.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &rc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || rc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Username: rc.Subject, Issuer: rc.Issuer}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		exp := rc.ExpiresAt.Time
		out.ExpiresAt = &exp
	}
	return out, nil
}
