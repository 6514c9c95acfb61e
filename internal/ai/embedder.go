package ai

import (
	"context"
	"fmt"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Providers understood by NewEmbedder.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-embedding-001"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "nomic-embed-text"
	DefaultLocalHost   = "http://localhost:11434/v1"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint (OpenAI-compatible providers only).
	BaseURL string
}

// NewEmbedder builds the embedder for cfg.Provider. The returned close
// function releases provider resources and is never nil.
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case ProviderGemini, "":
		e, err := NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		return e, e.Close, nil
	case ProviderOpenAI:
		e, err := NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		return e, noop, nil
	case ProviderLocal:
		e, err := NewLocalEmbedder(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		return e, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}
