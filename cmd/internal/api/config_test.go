package api

import "testing"

func TestFromEnv(t *testing.T) {
	t.Setenv("HUSH_API_MAX_BODY_BYTES", "1024")
	t.Setenv("HUSH_API_TRUST_PROXY", "true")

	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MaxBodyBytes != 1024 || !cfg.TrustProxy {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	for key, val := range map[string]string{
		"HUSH_API_MAX_BODY_BYTES": "-1",
		"HUSH_API_TRUST_PROXY":    "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := FromEnv(DefaultConfig()); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
