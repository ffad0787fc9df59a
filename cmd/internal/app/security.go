package app

import (
	"fmt"
	"log/slog"
)

// ValidateSecurityConfig fails startup on unusable crypto settings: a missing or
// short JWT secret, a malformed PASETO key, or out-of-range hashing costs.
func ValidateSecurityConfig(cfg Config, log *slog.Logger) error {
	if err := cfg.Password.Check(); err != nil {
		return fmt.Errorf("security policy: password hashing: %w", err)
	}
	if err := cfg.Session.Check(); err != nil {
		return fmt.Errorf("security policy: %w", err)
	}

	if log != nil && cfg.Session.TTL == 0 {
		log.Warn("security.token.no_expiry",
			"format", string(cfg.Session.Format),
			"hint", "set HUSH_TOKEN_TTL to bound token lifetime",
		)
	}
	return nil
}
