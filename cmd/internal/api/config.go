package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config controls request handling limits.
type Config struct {
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	// TrustProxy makes audit logs take the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool
}

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes: 64 << 10,
		TrustProxy:   false,
	}
}

// FromEnv applies HUSH_API_MAX_BODY_BYTES and HUSH_API_TRUST_PROXY on top of base.
func FromEnv(base Config) (Config, error) {
	cfg := base

	if v := strings.TrimSpace(os.Getenv("HUSH_API_MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("api: invalid HUSH_API_MAX_BODY_BYTES %q", v)
		}
		cfg.MaxBodyBytes = n
	}
	if v := strings.TrimSpace(os.Getenv("HUSH_API_TRUST_PROXY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("api: invalid HUSH_API_TRUST_PROXY %q", v)
		}
		cfg.TrustProxy = b
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return cfg, nil
}
