package app

import (
	"fmt"
	"strings"
	"time"

	"hush/cmd/internal/api"
	"hush/cmd/internal/auth/session"
	"hush/cmd/internal/realtime"
	"hush/cmd/security/password"
)

// Config is the full runtime configuration.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // json | text | pretty

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// DatabaseURL selects the backend: postgres:// or postgresql:// use Postgres,
	// anything else is a SQLite DSN. Empty means storage.DefaultSQLiteDSN.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool

	MetricsEnabled bool

	Password password.Config
	Session  session.Config
	API      api.Config
	Realtime realtime.Config
}

// DefaultConfig returns defaults for every non-secret setting.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:8080",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,

		DBMaxConns: 10,
		DBMinConns: 0,

		MetricsEnabled: true,

		Password: password.DefaultConfig(),
		Session:  session.DefaultConfig(),
		API:      api.DefaultConfig(),
		Realtime: realtime.DefaultConfig(),
	}
}

// LoadConfig layers defaults, the optional TOML file named by HUSH_CONFIG_FILE,
// and HUSH_* environment variables, in that order. Security settings are validated
// here so a bad secret fails startup rather than the first login.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := EnvString("HUSH_CONFIG_FILE", ""); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTPAddr = EnvString("HUSH_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = EnvString("HUSH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(EnvString("HUSH_LOG_FORMAT", cfg.LogFormat))

	cfg.ReadHeaderTimeout = EnvDuration("HUSH_HTTP_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ReadTimeout = EnvDuration("HUSH_HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = EnvDuration("HUSH_HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = EnvDuration("HUSH_HTTP_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.MaxHeaderBytes = EnvInt("HUSH_HTTP_MAX_HEADER_BYTES", cfg.MaxHeaderBytes)

	cfg.DatabaseURL = EnvString("HUSH_DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxConns = EnvInt32("HUSH_DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = EnvInt32("HUSH_DB_MIN_CONNS", cfg.DBMinConns)
	cfg.ReadinessRequireDB = EnvBool("HUSH_READINESS_REQUIRE_DB", cfg.ReadinessRequireDB)
	cfg.MetricsEnabled = EnvBool("HUSH_METRICS_ENABLED", cfg.MetricsEnabled)

	switch cfg.LogFormat {
	case "json", "text", "pretty":
	default:
		return Config{}, fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}

	var err error
	if cfg.Password, err = password.FromEnv(cfg.Password); err != nil {
		return Config{}, fmt.Errorf("config: password: %w", err)
	}
	if cfg.API, err = api.FromEnv(cfg.API); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Realtime, err = realtime.FromEnv(cfg.Realtime); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Session, err = session.FromEnv(cfg.Session); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}
