package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func TestFromEnv_MissingJWTSecret(t *testing.T) {
	t.Setenv("HUSH_JWT_SECRET", "")
	_, err := FromEnv(DefaultConfig())
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig on missing secret, got %v", err)
	}
}

func TestFromEnv_ShortJWTSecret(t *testing.T) {
	t.Setenv("HUSH_JWT_SECRET", "too-short")
	_, err := FromEnv(DefaultConfig())
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig on short secret, got %v", err)
	}
}

func TestFromEnv_InvalidDurations(t *testing.T) {
	t.Setenv("HUSH_JWT_SECRET", strings.Repeat("k", 32))

	for _, kv := range [][2]string{
		{"HUSH_TOKEN_TTL", "-5m"},
		{"HUSH_TOKEN_TTL", "soon"},
		{"HUSH_TOKEN_CLOCK_SKEW", "-1s"},
	} {
		t.Run(kv[0]+"="+kv[1], func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := FromEnv(DefaultConfig()); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HUSH_JWT_SECRET", strings.Repeat("k", 40))
	t.Setenv("HUSH_TOKEN_ISSUER", "hush-test")
	t.Setenv("HUSH_TOKEN_TTL", "2h")

	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Format != FormatJWT || cfg.Issuer != "hush-test" || cfg.TTL != 2*time.Hour {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.JWTSecret) != 40 {
		t.Fatalf("secret not loaded")
	}
}

func TestFromEnv_Paseto(t *testing.T) {
	t.Setenv("HUSH_TOKEN_FORMAT", "PASETO")
	t.Setenv("HUSH_PASETO_V4_SECRET_KEY_HEX", "zz")
	if _, err := FromEnv(DefaultConfig()); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad key, got %v", err)
	}

	t.Setenv("HUSH_PASETO_V4_SECRET_KEY_HEX", paseto.NewV4AsymmetricSecretKey().ExportHex())
	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Format != FormatPaseto {
		t.Fatalf("format = %q", cfg.Format)
	}
}

func TestCheck_UnknownFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "saml"
	if err := cfg.Check(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
