package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"hush/cmd/security/token"
)

type pasetoV4PublicManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4PublicManager builds a TokenManager based on PASETO v4.public.
//
// It uses an Ed25519 asymmetric keypair and enforces the issuer. With a TTL, tokens
// carry nbf/exp and are validated at now+clockSkew.
func NewPasetoV4PublicManager(cfg Config) (TokenManager, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4PublicManager) KeyID() string {
	return "v4.public:" + token.Fingerprint(m.public.ExportHex())
}

func (m *pasetoV4PublicManager) Issue(username string, now time.Time) (string, error) {
	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetSubject(username)
	tok.SetIssuedAt(now)
	if m.ttl > 0 {
		tok.SetNotBefore(now)
		tok.SetExpiration(now.Add(m.ttl))
	}

	return tok.V4Sign(m.secret, nil), nil
}

func (m *pasetoV4PublicManager) Verify(tokenStr string, now time.Time) (Claims, error) {
	// Build a fresh parser per call to avoid accumulating rules across verifies.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))
	if m.ttl > 0 {
		p.AddRule(paseto.ValidAt(now.Add(m.clockSkew)))
	}

	parsed, err := p.ParseV4Public(m.public, tokenStr, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	sub, err := parsed.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Username: sub}
	out.Issuer, _ = parsed.GetIssuer()
	out.IssuedAt, _ = parsed.GetIssuedAt()
	if exp, err := parsed.GetExpiration(); err == nil {
		out.ExpiresAt = &exp
	}
	return out, nil
}
