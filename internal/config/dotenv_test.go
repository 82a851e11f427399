package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("COUNTDOWN_DEFAULT_SECONDS", "120")
	t.Setenv("COUNTDOWN_TICK_SECONDS", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BROKER", "NATS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CountdownDefaultSeconds != 120 {
		t.Fatalf("expected default countdown 120, got %d", cfg.CountdownDefaultSeconds)
	}
	if cfg.CountdownTickSeconds != 0 {
		t.Fatalf("expected tick 0, got %d", cfg.CountdownTickSeconds)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
	if cfg.Broker != "nats" {
		t.Fatalf("expected broker nats, got %s", cfg.Broker)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("COUNTDOWN_MIN_SECONDS", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CountdownMinSeconds != Default().CountdownMinSeconds {
		t.Fatalf("expected default min, got %d", cfg.CountdownMinSeconds)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: \"9090\"\ncountdown_max_seconds: 1800\nallowed_origins:\n  - https://events.example\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Port != "9090" || cfg.CountdownMaxSeconds != 1800 {
		t.Fatalf("unexpected overlay %#v", cfg)
	}
	if cfg.CountdownMinSeconds != 60 {
		t.Fatalf("expected untouched min 60, got %d", cfg.CountdownMinSeconds)
	}
	if err := LoadFile(filepath.Join(dir, "missing.yaml"), &cfg); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestLoadReportsBrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected a parse error for a broken config file")
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected env overrides to still apply, got port %q", cfg.Port)
	}
	if !cfg.InsecureSecret() {
		t.Fatalf("expected the development secret to be flagged")
	}
	t.Setenv("JWT_SECRET", "a-real-secret")
	if cfg, _ = Load(); cfg.InsecureSecret() {
		t.Fatalf("expected a configured secret to pass")
	}
}

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("ACK_TIMEOUT_MS", "250")
	cfg := LoadClient()
	if cfg.AckTimeout.Milliseconds() != 250 {
		t.Fatalf("expected ack timeout 250ms, got %s", cfg.AckTimeout)
	}
	if cfg.ReconnectMax <= cfg.ReconnectInitial {
		t.Fatalf("expected reconnect max above initial")
	}
}
