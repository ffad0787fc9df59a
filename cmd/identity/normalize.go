package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLen = 64
	maxNameLen     = 100
	maxPhoneLen    = 32
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_.-]{1,64}$`)

// NormalizeUsername performs case-insensitive canonicalization.
// Every entry point (register, login, token subject, URL path) goes through it so
// "Alice" and "alice" are the same principal.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidUsername reports whether an already-normalized username is acceptable.
func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

func normalizeField(s string, maxLen int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= maxLen
}
