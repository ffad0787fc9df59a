package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// SecretEnvKey is the env var name for the JWT signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "HUSH_JWT_SECRET"

	// MinSecretBytes is the smallest accepted HS256 secret (the hash output size).
	MinSecretBytes = 32
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// CheckSecret enforces a minimum byte length on a signing secret.
// Bytes, not runes: the secret is used as raw key material.
func CheckSecret(secret []byte, minBytes int) error {
	if len(secret) == 0 {
		return ErrSecretMissing
	}
	if minBytes > 0 && len(secret) < minBytes {
		return ErrSecretTooShort
	}
	return nil
}

// SecretFromEnv returns the trimmed value of envKey, enforcing minBytes.
func SecretFromEnv(envKey string, minBytes int) ([]byte, error) {
	b := []byte(strings.TrimSpace(os.Getenv(envKey)))
	if err := CheckSecret(b, minBytes); err != nil {
		return nil, err
	}
	return b, nil
}

// Fingerprint returns a 12-char identifier for s, safe to log.
func Fingerprint(s string) string {
	return HashSHA256Hex(s)[:12]
}

// KeyFingerprint identifies secret key material in logs without revealing it.
// It is keyed so equal tokens and keys never share a fingerprint.
func KeyFingerprint(secret []byte) string {
	return HashHMACSHA256Hex("hush.key.fingerprint", secret)[:12]
}
