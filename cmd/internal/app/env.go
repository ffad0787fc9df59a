package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Unset, empty and unparsable values all fall back to def. The sub-config
// FromEnv functions are strict instead; these cover plain server knobs.

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	return envParse(key, def, strconv.ParseBool)
}

// EnvInt reads a positive int env var with a default.
func EnvInt(key string, def int) int {
	n := envParse(key, def, strconv.Atoi)
	if n <= 0 {
		return def
	}
	return n
}

// EnvInt32 reads a non-negative int32 env var with a default.
func EnvInt32(key string, def int32) int32 {
	n := envParse(key, int64(def), func(s string) (int64, error) { return strconv.ParseInt(s, 10, 32) })
	if n < 0 {
		return def
	}
	return int32(n)
}

// EnvDuration reads a positive duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	d := envParse(key, def, time.ParseDuration)
	if d <= 0 {
		return def
	}
	return d
}

func envParse[T any](key string, def T, parse func(string) (T, error)) T {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}
