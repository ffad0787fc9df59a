package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"hush/cmd/internal/auth/session"
	"hush/cmd/security/password"
)

// fileConfig mirrors the TOML layout. Pointer fields distinguish "absent" from
// zero. Secrets have no keys here and are read only from the environment.
type fileConfig struct {
	Server struct {
		HTTPAddr          *string        `toml:"http_addr"`
		ReadHeaderTimeout *time.Duration `toml:"read_header_timeout"`
		ReadTimeout       *time.Duration `toml:"read_timeout"`
		WriteTimeout      *time.Duration `toml:"write_timeout"`
		IdleTimeout       *time.Duration `toml:"idle_timeout"`
		MaxHeaderBytes    *int           `toml:"max_header_bytes"`
	} `toml:"server"`

	Log struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`

	Database struct {
		URL              *string `toml:"url"`
		MaxConns         *int32  `toml:"max_conns"`
		MinConns         *int32  `toml:"min_conns"`
		ReadinessRequire *bool   `toml:"readiness_require"`
	} `toml:"database"`

	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`

	Password struct {
		Algorithm         *string `toml:"algorithm"`
		MinLength         *int    `toml:"min_length"`
		MaxLength         *int    `toml:"max_length"`
		RejectVeryWeak    *bool   `toml:"reject_very_weak"`
		BcryptCost        *int    `toml:"bcrypt_cost"`
		Argon2MemoryKiB   *uint32 `toml:"argon2_memory_kib"`
		Argon2Iterations  *uint32 `toml:"argon2_iterations"`
		Argon2Parallelism *uint8  `toml:"argon2_parallelism"`
	} `toml:"password"`

	Token struct {
		Format    *string        `toml:"format"`
		Issuer    *string        `toml:"issuer"`
		TTL       *time.Duration `toml:"ttl"`
		ClockSkew *time.Duration `toml:"clock_skew"`
	} `toml:"token"`

	API struct {
		MaxBodyBytes *int64 `toml:"max_body_bytes"`
		TrustProxy   *bool  `toml:"trust_proxy"`
	} `toml:"api"`

	Realtime struct {
		AllowedOrigins *[]string      `toml:"allowed_origins"`
		OriginRequired *bool          `toml:"origin_required"`
		HelloTimeout   *time.Duration `toml:"hello_timeout"`
		SendQueue      *int           `toml:"send_queue"`
	} `toml:"realtime"`
}

// applyFile decodes path and copies every key it sets onto cfg. Unknown keys are
// an error so typos do not silently fall back to defaults.
func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, 0, len(undec))
		for _, k := range undec {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	set(&cfg.HTTPAddr, fc.Server.HTTPAddr)
	set(&cfg.ReadHeaderTimeout, fc.Server.ReadHeaderTimeout)
	set(&cfg.ReadTimeout, fc.Server.ReadTimeout)
	set(&cfg.WriteTimeout, fc.Server.WriteTimeout)
	set(&cfg.IdleTimeout, fc.Server.IdleTimeout)
	set(&cfg.MaxHeaderBytes, fc.Server.MaxHeaderBytes)

	set(&cfg.LogLevel, fc.Log.Level)
	set(&cfg.LogFormat, fc.Log.Format)

	set(&cfg.DatabaseURL, fc.Database.URL)
	set(&cfg.DBMaxConns, fc.Database.MaxConns)
	set(&cfg.DBMinConns, fc.Database.MinConns)
	set(&cfg.ReadinessRequireDB, fc.Database.ReadinessRequire)

	set(&cfg.MetricsEnabled, fc.Metrics.Enabled)

	if fc.Password.Algorithm != nil {
		cfg.Password.Algorithm = password.Algorithm(strings.ToLower(*fc.Password.Algorithm))
	}
	set(&cfg.Password.Policy.MinLength, fc.Password.MinLength)
	set(&cfg.Password.Policy.MaxLength, fc.Password.MaxLength)
	set(&cfg.Password.Policy.RejectVeryWeak, fc.Password.RejectVeryWeak)
	set(&cfg.Password.BcryptCost, fc.Password.BcryptCost)
	set(&cfg.Password.Params.MemoryKiB, fc.Password.Argon2MemoryKiB)
	set(&cfg.Password.Params.Iterations, fc.Password.Argon2Iterations)
	set(&cfg.Password.Params.Parallelism, fc.Password.Argon2Parallelism)

	if fc.Token.Format != nil {
		cfg.Session.Format = session.Format(strings.ToLower(*fc.Token.Format))
	}
	set(&cfg.Session.Issuer, fc.Token.Issuer)
	set(&cfg.Session.TTL, fc.Token.TTL)
	set(&cfg.Session.ClockSkew, fc.Token.ClockSkew)

	set(&cfg.API.MaxBodyBytes, fc.API.MaxBodyBytes)
	set(&cfg.API.TrustProxy, fc.API.TrustProxy)

	set(&cfg.Realtime.AllowedOrigins, fc.Realtime.AllowedOrigins)
	set(&cfg.Realtime.OriginRequired, fc.Realtime.OriginRequired)
	set(&cfg.Realtime.HelloTimeout, fc.Realtime.HelloTimeout)
	set(&cfg.Realtime.SendQueueSize, fc.Realtime.SendQueue)

	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
