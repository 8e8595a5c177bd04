package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/config"
	"github.com/motivaitor/insight/internal/index"
	"github.com/motivaitor/insight/internal/momentum"
	"github.com/motivaitor/insight/internal/retrieval"
	"github.com/motivaitor/insight/internal/store"
)

// app holds the services shared by every command.
type app struct {
	db        *store.DB
	index     *index.Index
	abilities *ability.Engine
	momentum  momentum.Calculator
	gateway   *retrieval.Gateway
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ix := index.New(db, selectEmbedder(ctx, db, cfg.Embedding))

	opts := []retrieval.Option{retrieval.WithDefaultLimit(cfg.Retrieval.Limit)}
	if cfg.Retrieval.MaxTokens > 0 {
		opts = append(opts, retrieval.WithTokenBudget(tokenCounter(cfg.Retrieval.Encoding), cfg.Retrieval.MaxTokens))
	}

	slog.Debug("database opened", "path", dbPath)
	return &app{
		db:        db,
		index:     ix,
		abilities: ability.NewEngine(db, db, abilityConfig(cfg.Ability)),
		momentum:  momentum.New(cfg.Momentum.RustThreshold.Duration),
		gateway:   retrieval.New(ix, opts...),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// selectEmbedder resolves the configured provider. "auto" prefers a
// reachable Ollama and otherwise falls back to feature hashing, whose
// vectors stay comparable across restarts.
func selectEmbedder(ctx context.Context, db *store.DB, cfg config.EmbeddingConfig) index.Embedder {
	switch cfg.Provider {
	case "ollama":
		slog.Info("embedder selected", "provider", "ollama", "model", cfg.Model)
		return index.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	case "tfidf":
		corpus, err := db.DocumentTexts(ctx, 0)
		if err != nil {
			slog.Warn("tfidf corpus unavailable, using hash embedder", "error", err)
			return index.NewHashEmbedder(0)
		}
		slog.Info("embedder selected", "provider", "tfidf", "corpus", len(corpus))
		return index.NewTFIDFEmbedder(corpus, 512)
	case "hash":
		slog.Info("embedder selected", "provider", "hash")
		return index.NewHashEmbedder(0)
	}

	if index.ProbeOllama(ctx, cfg.OllamaURL, cfg.Model) {
		slog.Info("embedder selected", "provider", "ollama", "model", cfg.Model)
		return index.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	}
	slog.Info("embedder selected", "provider", "hash", "reason", "ollama unreachable")
	return index.NewHashEmbedder(0)
}

func tokenCounter(encoding string) retrieval.TokenCounter {
	counter, err := retrieval.NewTiktokenCounter(encoding)
	if err != nil {
		slog.Warn("tiktoken unavailable, counting words", "encoding", encoding, "error", err)
		return retrieval.WordCounter{}
	}
	return counter
}

func abilityConfig(c config.AbilityConfig) ability.Config {
	return ability.Config{
		WillpowerWindow: c.WillpowerWindow.Duration,
		HealthWindow:    c.HealthWindow.Duration,
		StrengthWindow:  c.StrengthWindow.Duration,
		DecayRate:       c.DecayRate,
		DecayMode:       ability.DecayMode(c.DecayMode),
	}
}
