// Package ids provides the ULID primitives used for hush record ids.
package ids

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars).
// ULIDs sort lexicographically by creation time.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CanonicalULID parses s case-insensitively and returns its canonical upper-case form.
func CanonicalULID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) != ulid.EncodedSize {
		return "", false
	}
	id, err := ulid.ParseStrict(strings.ToUpper(s))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
