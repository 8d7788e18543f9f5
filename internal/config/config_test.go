package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected path %s, got %s", path, resolved)
	}
	if cfg.Addr != ":4000" || cfg.MessageLimitPerWindow != 5 || cfg.MessageLimitWindow != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), "invite_code_length: 10") {
		t.Fatalf("unexpected default config:\n%s", data)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9000\"\nmessage_limit_per_window: 7\nmessage_limit_window: 30s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ROOMCHAT_MESSAGE_LIMIT_PER_WINDOW", "9")
	t.Setenv("ROOMCHAT_JWT_SECRET", "from-env")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("expected addr from file, got %s", cfg.Addr)
	}
	if cfg.MessageLimitPerWindow != 9 {
		t.Fatalf("expected env to win over file, got %d", cfg.MessageLimitPerWindow)
	}
	if cfg.MessageLimitWindow != 30*time.Second {
		t.Fatalf("expected window from file, got %s", cfg.MessageLimitWindow)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("expected secret from env, got %q", cfg.JWTSecret)
	}

	cfg.UpdateFrom(Config{Addr: ":9100"})
	if cfg.Addr != ":9100" || cfg.DatabasePath != "roomchat.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing jwt secret to fail validation")
	}

	cfg.JWTSecret = "short"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if len(cfg.Warnings()) != 1 {
		t.Fatalf("expected one warning, got %v", cfg.Warnings())
	}

	cfg.HistoryPageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero history page size to fail validation")
	}
}
