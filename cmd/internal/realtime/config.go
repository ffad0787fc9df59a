package realtime

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// Max bytes per inbound frame. Clients only ever send hello.
	maxFrameBytes = 8 << 10

	maxPingFailures = 3
	closeGrace      = 1 * time.Second
)

// Config controls the WebSocket gateway.
type Config struct {
	// OriginRequired rejects upgrades without an Origin header.
	OriginRequired bool
	// AllowedOrigins lists full origins or bare hosts; "*" allows any.
	AllowedOrigins []string
	// DevInsecure disables coder/websocket's own origin verification.
	DevInsecure bool

	HelloTimeout  time.Duration
	WriteTimeout  time.Duration
	SendQueueSize int

	// Liveness after hello rests on pings alone; reads carry no deadline.

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	// RateEvents inbound frames are allowed per RateWindow.
	RateEvents int
	RateWindow time.Duration
}

// DefaultConfig returns localhost-only defaults.
func DefaultConfig() Config {
	return Config{
		OriginRequired:    false,
		AllowedOrigins:    []string{"http://localhost", "http://127.0.0.1"},
		HelloTimeout:      10 * time.Second,
		WriteTimeout:      5 * time.Second,
		SendQueueSize:     64,
		HeartbeatInterval: 25 * time.Second,
		HeartbeatTimeout:  5 * time.Second,
		RateEvents:        30,
		RateWindow:        10 * time.Second,
	}
}

// FromEnv applies HUSH_WS_* overrides on top of base.
func FromEnv(base Config) (Config, error) {
	cfg := base
	var err error

	if cfg.OriginRequired, err = envBool("HUSH_WS_ORIGIN_REQUIRED", cfg.OriginRequired); err != nil {
		return Config{}, err
	}
	if cfg.DevInsecure, err = envBool("HUSH_WS_DEV_INSECURE", cfg.DevInsecure); err != nil {
		return Config{}, err
	}
	if v, ok := os.LookupEnv("HUSH_WS_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitCSV(v)
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"HUSH_WS_HELLO_TIMEOUT", &cfg.HelloTimeout},
		{"HUSH_WS_WRITE_TIMEOUT", &cfg.WriteTimeout},
		{"HUSH_WS_HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval},
		{"HUSH_WS_HEARTBEAT_TIMEOUT", &cfg.HeartbeatTimeout},
		{"HUSH_WS_RATE_WINDOW", &cfg.RateWindow},
	} {
		if *d.dst, err = envDuration(d.key, *d.dst); err != nil {
			return Config{}, err
		}
	}
	if cfg.SendQueueSize, err = envInt("HUSH_WS_SEND_QUEUE", cfg.SendQueueSize); err != nil {
		return Config{}, err
	}
	if cfg.RateEvents, err = envInt("HUSH_WS_RATE_EVENTS", cfg.RateEvents); err != nil {
		return Config{}, err
	}

	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HelloTimeout <= 0 {
		c.HelloTimeout = def.HelloTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.SendQueueSize < 8 {
		c.SendQueueSize = 8
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = def.HeartbeatTimeout
	}
	if c.RateEvents <= 0 {
		c.RateEvents = def.RateEvents
	}
	if c.RateWindow <= 0 {
		c.RateWindow = def.RateWindow
	}
	return c
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("realtime: invalid %s %q", key, v)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("realtime: invalid %s %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("realtime: invalid %s %q", key, v)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
