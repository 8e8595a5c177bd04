package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:37780" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Momentum.RustThreshold.Duration != 120*time.Hour {
		t.Errorf("rust threshold = %v, want 120h", cfg.Momentum.RustThreshold)
	}
	if cfg.Ability.DecayMode != "per_call" || cfg.Ability.DecayRate != 1.0 {
		t.Errorf("unexpected ability defaults %+v", cfg.Ability)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retrieval.Limit != 3 {
		t.Errorf("retrieval limit = %d, want 3", cfg.Retrieval.Limit)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insight.toml")
	content := `
log_level = "debug"

[server]
port = 9000

[momentum]
rust_threshold = "72h"

[ability]
decay_mode = "elapsed"
decay_rate = 2.5
health_window = "168h"

[kafka]
brokers = ["k1:9092", "k2:9092"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Server.Port != 9000 {
		t.Errorf("top-level values not applied: %+v", cfg)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("unset keys should keep defaults, bind = %q", cfg.Server.Bind)
	}
	if cfg.Momentum.RustThreshold.Duration != 72*time.Hour {
		t.Errorf("rust threshold = %v", cfg.Momentum.RustThreshold)
	}
	if cfg.Ability.DecayMode != "elapsed" || cfg.Ability.DecayRate != 2.5 {
		t.Errorf("ability = %+v", cfg.Ability)
	}
	if cfg.Ability.StrengthWindow.Duration != 14*24*time.Hour {
		t.Errorf("strength window = %v, want default", cfg.Ability.StrengthWindow)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insight.toml")
	os.WriteFile(path, []byte("[database]\npath = \"/from/file.db\"\n"), 0644)

	t.Setenv("INSIGHT_DB_PATH", "/from/env.db")
	t.Setenv("INSIGHT_JWT_SECRET", "s3cret")
	t.Setenv("INSIGHT_KAFKA_BROKERS", "a:1, b:2,,")
	t.Setenv("INSIGHT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/from/env.db" {
		t.Errorf("env should win over file, path = %q", cfg.Database.Path)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.LogLevel != "warn" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:2" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[server\nport = 1"},
		{"bad duration", "[momentum]\nrust_threshold = \"five days\""},
		{"bad decay mode", "[ability]\ndecay_mode = \"hourly\""},
		{"negative decay", "[ability]\ndecay_rate = -1.0"},
		{"bad provider", "[embedding]\nprovider = \"openai\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "insight.toml")
			os.WriteFile(path, []byte(tt.content), 0644)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
