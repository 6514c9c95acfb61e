// Package app builds the collaborators shared by the server and the tools
// from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ogloszenia/opportunity-board/internal/ai"
	"github.com/ogloszenia/opportunity-board/internal/chroma"
	"github.com/ogloszenia/opportunity-board/internal/config"
	"github.com/ogloszenia/opportunity-board/internal/db"
	"github.com/ogloszenia/opportunity-board/internal/geo"
	"github.com/ogloszenia/opportunity-board/internal/ingest"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/search"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

// SetupLogger installs a JSON slog handler on stderr as the default logger.
func SetupLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Components are constructed once per process and injected everywhere.
type Components struct {
	Vocabulary *schema.Vocabulary
	Embedder   ai.Embedder
	Store      vectorstore.Store
	Geocoder   geo.Geocoder

	closers []func() error
}

// Build connects to the configured store and embedding provider. On error
// anything already opened is closed.
func Build(ctx context.Context, cfg *config.Config) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if c.Vocabulary, err = schema.LoadVocabulary(cfg.VocabularyFile); err != nil {
		return nil, err
	}

	if c.Store, err = c.openStore(ctx, cfg); err != nil {
		return nil, err
	}

	embedder, closeEmbedder, err := ai.NewEmbedder(ctx, ai.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
		APIKey:   embeddingKey(cfg),
		BaseURL:  embeddingBaseURL(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	c.Embedder = embedder
	c.closers = append(c.closers, closeEmbedder)

	c.Geocoder = geo.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, nil)
	return c, nil
}

func (c *Components) openStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	logger := slog.Default().With("component", "app")

	switch cfg.StoreBackend {
	case config.BackendChroma:
		client, err := chroma.Open(ctx, chroma.Options{
			BaseURL:    cfg.ChromaURL,
			APIKey:     cfg.ChromaAPIKey,
			Tenant:     cfg.ChromaTenant,
			Database:   cfg.ChromaDatabase,
			Collection: cfg.CollectionName,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using chroma store", "collection", cfg.CollectionName, "id", client.CollectionID())
		return client, nil

	case config.BackendPgvector:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("using pgvector store", "collection", cfg.CollectionName)
		return db.NewStore(pool, cfg.CollectionName), nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; records are lost on exit")
		return vectorstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (c *Components) Ingest() *ingest.Pipeline {
	return ingest.NewPipeline(schema.NewValidator(c.Vocabulary), c.Embedder, c.Store, c.Geocoder)
}

func (c *Components) Search() *search.Pipeline {
	return search.NewPipeline(c.Vocabulary, c.Embedder, c.Store)
}

// Close releases collaborators in reverse order of creation.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func embeddingKey(cfg *config.Config) string {
	switch cfg.EmbeddingProvider {
	case config.ProviderGemini:
		return cfg.GoogleGenAIKey
	case config.ProviderOpenAI:
		return cfg.OpenAIAPIKey
	}
	return ""
}

func embeddingBaseURL(cfg *config.Config) string {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return cfg.OpenAIBaseURL
	case config.ProviderLocal:
		return cfg.LocalEmbeddingHost
	}
	return ""
}
