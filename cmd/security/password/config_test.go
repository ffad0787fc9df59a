package password

import (
	"errors"
	"testing"
)

func TestFromEnv_KeepsBaseWhenUnset(t *testing.T) {
	base := DefaultConfig()
	base.Policy.MinLength = 9

	cfg, err := FromEnv(base)
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Policy.MinLength != 9 {
		t.Fatalf("min length = %d, want 9", cfg.Policy.MinLength)
	}
	if cfg.Algorithm != AlgorithmArgon2id {
		t.Fatalf("algorithm = %q, want argon2id", cfg.Algorithm)
	}
	if cfg.Params.MemoryKiB != base.Params.MemoryKiB {
		t.Fatalf("memory mismatch")
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("HUSH_PASSWORD_MIN_LEN", "10")
	t.Setenv("HUSH_PASSWORD_MAX_LEN", "200")
	t.Setenv("HUSH_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("HUSH_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("HUSH_ARGON2_ITERATIONS", "4")
	t.Setenv("HUSH_ARGON2_PARALLELISM", "2")
	t.Setenv("HUSH_ARGON2_SALT_LEN", "24")
	t.Setenv("HUSH_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 32768 || cfg.Params.Iterations != 4 || cfg.Params.Parallelism != 2 {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
	if cfg.Params.SaltLength != 24 || cfg.Params.KeyLength != 32 {
		t.Fatalf("len override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_Bcrypt(t *testing.T) {
	t.Setenv("HUSH_PASSWORD_ALGORITHM", "BCRYPT")
	t.Setenv("HUSH_BCRYPT_COST", "10")

	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Algorithm != AlgorithmBcrypt || cfg.BcryptCost != 10 {
		t.Fatalf("bcrypt override failed: %q cost=%d", cfg.Algorithm, cfg.BcryptCost)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"min above max", map[string]string{"HUSH_PASSWORD_MIN_LEN": "20", "HUSH_PASSWORD_MAX_LEN": "10"}},
		{"unknown algorithm", map[string]string{"HUSH_PASSWORD_ALGORITHM": "md5"}},
		{"bcrypt cost too high", map[string]string{"HUSH_BCRYPT_COST": "99"}},
		{"memory not a number", map[string]string{"HUSH_ARGON2_MEMORY_KIB": "lots"}},
		{"bad bool", map[string]string{"HUSH_PASSWORD_REJECT_VERY_WEAK": "maybe"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(DefaultConfig()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCheck_RejectsWeakArgonParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 1024

	if err := cfg.Check(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
