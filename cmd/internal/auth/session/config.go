package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"hush/cmd/security/token"
)

// Format selects the token encoding.
type Format string

const (
	FormatJWT    Format = "jwt"
	FormatPaseto Format = "paseto"
)

// Config defines all runtime configuration for the session issuer.
type Config struct {
	Format Format

	// Issuer is the value set in the "iss" claim and required on verification.
	Issuer string

	// TTL bounds token lifetime. Zero means tokens never expire.
	TTL time.Duration

	// ClockSkew is tolerated on time-based checks when TTL > 0.
	ClockSkew time.Duration

	// JWTSecret signs HS256 tokens. Never logged.
	JWTSecret []byte

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key for v4.public tokens.
	PasetoV4SecretKeyHex string
}

// DefaultConfig returns the non-secret defaults. Keys always come from configuration.
func DefaultConfig() Config {
	return Config{
		Format:    FormatJWT,
		Issuer:    "hush",
		TTL:       0,
		ClockSkew: 30 * time.Second,
	}
}

// FromEnv applies environment overrides on top of base and validates the result.
//
// Env surface:
//   - HUSH_TOKEN_FORMAT (jwt|paseto)
//   - HUSH_TOKEN_ISSUER
//   - HUSH_TOKEN_TTL, HUSH_TOKEN_CLOCK_SKEW (Go durations, >= 0)
//   - HUSH_JWT_SECRET (>= 32 bytes, required for jwt)
//   - HUSH_PASETO_V4_SECRET_KEY_HEX (required for paseto)
func FromEnv(base Config) (Config, error) {
	cfg := base

	if v := strings.TrimSpace(os.Getenv("HUSH_TOKEN_FORMAT")); v != "" {
		cfg.Format = Format(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("HUSH_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("HUSH_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("%w: HUSH_TOKEN_TTL", ErrConfig)
		}
		cfg.TTL = d
	}
	if v := strings.TrimSpace(os.Getenv("HUSH_TOKEN_CLOCK_SKEW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("%w: HUSH_TOKEN_CLOCK_SKEW", ErrConfig)
		}
		cfg.ClockSkew = d
	}

	if strings.TrimSpace(os.Getenv(token.SecretEnvKey)) != "" {
		secret, err := token.SecretFromEnv(token.SecretEnvKey, token.MinSecretBytes)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrConfig, token.SecretEnvKey, err)
		}
		cfg.JWTSecret = secret
	}
	if v := strings.TrimSpace(os.Getenv("HUSH_PASETO_V4_SECRET_KEY_HEX")); v != "" {
		cfg.PasetoV4SecretKeyHex = v
	}

	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check validates the configuration for the selected format.
func (c Config) Check() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: empty issuer", ErrConfig)
	}
	if c.TTL < 0 || c.ClockSkew < 0 {
		return fmt.Errorf("%w: negative duration", ErrConfig)
	}

	switch c.Format {
	case FormatJWT:
		if err := token.CheckSecret(c.JWTSecret, token.MinSecretBytes); err != nil {
			if errors.Is(err, token.ErrSecretMissing) {
				return fmt.Errorf("%w: %s is required for jwt tokens", ErrConfig, token.SecretEnvKey)
			}
			return fmt.Errorf("%w: %s must be at least %d bytes", ErrConfig, token.SecretEnvKey, token.MinSecretBytes)
		}
	case FormatPaseto:
		if _, err := paseto.NewV4AsymmetricSecretKeyFromHex(c.PasetoV4SecretKeyHex); err != nil {
			return fmt.Errorf("%w: HUSH_PASETO_V4_SECRET_KEY_HEX is missing or malformed", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown token format %q", ErrConfig, c.Format)
	}
	return nil
}
