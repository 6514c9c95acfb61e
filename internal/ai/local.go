package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// LocalEmbedder talks to a self-hosted OpenAI-compatible server such as
// Ollama's /v1 endpoint. No credentials are sent.
type LocalEmbedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

func NewLocalEmbedder(host, model string) (*LocalEmbedder, error) {
	if host == "" {
		host = DefaultLocalHost
	}
	if model == "" {
		model = DefaultLocalModel
	}

	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("local: failed to create client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("local: failed to create embedder: %w", err)
	}

	return &LocalEmbedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "local-embedder"),
	}, nil
}

func (e *LocalEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding", "model", e.model, "length", len(text))

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("local embedder returned no embedding")
	}
	return vec, nil
}
