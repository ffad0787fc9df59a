package token

import (
	"strings"
	"testing"
)

func TestSecretFromEnv(t *testing.T) {
	t.Setenv(SecretEnvKey, "")
	if _, err := SecretFromEnv(SecretEnvKey, MinSecretBytes); err != ErrSecretMissing {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}

	t.Setenv(SecretEnvKey, "  short  ")
	if _, err := SecretFromEnv(SecretEnvKey, MinSecretBytes); err != ErrSecretTooShort {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}

	want := strings.Repeat("k", 32)
	t.Setenv(SecretEnvKey, " "+want+"\n")
	got, err := SecretFromEnv(SecretEnvKey, MinSecretBytes)
	if err != nil {
		t.Fatalf("SecretFromEnv: %v", err)
	}
	if string(got) != want {
		t.Fatalf("secret not trimmed: %q", got)
	}
}

func TestFingerprints(t *testing.T) {
	secret := []byte(strings.Repeat("s", 32))

	fp := KeyFingerprint(secret)
	if len(fp) != 12 {
		t.Fatalf("unexpected fingerprint %q", fp)
	}
	if KeyFingerprint(secret) != fp {
		t.Fatalf("fingerprint not stable")
	}
	if KeyFingerprint([]byte(strings.Repeat("t", 32))) == fp {
		t.Fatalf("distinct keys share a fingerprint")
	}
	if Fingerprint(string(secret)) == fp {
		t.Fatalf("token and key fingerprints must differ")
	}
	if len(HashSHA256Hex("x")) != 64 {
		t.Fatalf("sha256 hex length")
	}
}
