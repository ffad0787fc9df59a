package realtime

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("HUSH_WS_ORIGIN_REQUIRED", "true")
	t.Setenv("HUSH_WS_ALLOWED_ORIGINS", "https://chat.example.com, http://localhost:3000 ,")
	t.Setenv("HUSH_WS_HELLO_TIMEOUT", "3s")
	t.Setenv("HUSH_WS_SEND_QUEUE", "128")

	cfg, err := FromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.OriginRequired || cfg.HelloTimeout != 3*time.Second || cfg.SendQueueSize != 128 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	want := []string{"https://chat.example.com", "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("HUSH_WS_WRITE_TIMEOUT", "soon")
	if _, err := FromEnv(DefaultConfig()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:3000", "https://LOCALHOST", "chat.example.com", "*"})
	want := []string{"*", "chat.example.com", "chat.example.com:*", "localhost", "localhost:*"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("originPatterns = %v, want %v", got, want)
	}
}
