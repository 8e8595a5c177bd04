package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all insight configuration.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Momentum  MomentumConfig  `toml:"momentum"`
	Ability   AbilityConfig   `toml:"ability"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Auth      AuthConfig      `toml:"auth"`
	Kafka     KafkaConfig     `toml:"kafka"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"` // "auto", "ollama", "tfidf", "hash"
	OllamaURL  string `toml:"ollama_url"`
	Model      string `toml:"model"` // e.g. "nomic-embed-text"
	Dimensions int    `toml:"dimensions"`
}

type MomentumConfig struct {
	RustThreshold Duration `toml:"rust_threshold"`
}

type AbilityConfig struct {
	WillpowerWindow Duration `toml:"willpower_window"`
	HealthWindow    Duration `toml:"health_window"`
	StrengthWindow  Duration `toml:"strength_window"`
	DecayRate       float64  `toml:"decay_rate"`
	DecayMode       string   `toml:"decay_mode"` // "per_call" or "elapsed"
}

type RetrievalConfig struct {
	Limit     int    `toml:"limit"`
	MaxTokens int    `toml:"max_tokens"` // 0 disables the budget
	Encoding  string `toml:"encoding"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"` // empty disables auth
	Issuer    string `toml:"issuer"`
}

type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
	GroupID string   `toml:"group_id"`
}

type SchedulerConfig struct {
	Enabled     bool   `toml:"enabled"`
	Cron        string `toml:"cron"`
	Concurrency int    `toml:"concurrency"`
}

// Duration is a time.Duration written as a string ("120h", "30m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const day = 24 * time.Hour

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Embedding: EmbeddingConfig{
			Provider:   "auto",
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Momentum: MomentumConfig{
			RustThreshold: Duration{5 * day},
		},
		Ability: AbilityConfig{
			WillpowerWindow: Duration{7 * day},
			HealthWindow:    Duration{7 * day},
			StrengthWindow:  Duration{14 * day},
			DecayRate:       1.0,
			DecayMode:       "per_call",
		},
		Retrieval: RetrievalConfig{
			Limit:     3,
			MaxTokens: 0,
			Encoding:  "cl100k_base",
		},
		Auth: AuthConfig{
			Issuer: "insight",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "activity_events",
			GroupID: "insight",
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Cron:        "0 3 * * *",
			Concurrency: 4,
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path (if it
// exists) and then with INSIGHT_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INSIGHT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("INSIGHT_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("INSIGHT_KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
	if v := os.Getenv("INSIGHT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INSIGHT_OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "auto", "ollama", "tfidf", "hash":
	default:
		return fmt.Errorf("embedding.provider: unknown provider %q", c.Embedding.Provider)
	}
	switch c.Ability.DecayMode {
	case "per_call", "elapsed":
	default:
		return fmt.Errorf("ability.decay_mode: must be per_call or elapsed, got %q", c.Ability.DecayMode)
	}
	if c.Ability.DecayRate < 0 {
		return fmt.Errorf("ability.decay_rate: must not be negative")
	}
	if c.Momentum.RustThreshold.Duration <= 0 {
		return fmt.Errorf("momentum.rust_threshold: must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
