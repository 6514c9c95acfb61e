package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingsServer answers OpenAI-style /embeddings calls with a fixed vector.
func fakeEmbeddingsServer(t *testing.T, vec []float32, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-model",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, closeFn, err := NewEmbedder(context.Background(), Config{Provider: "word2vec"})
	assert.ErrorContains(t, err, "word2vec")
	assert.NotNil(t, closeFn)
}

func TestNewEmbedder_MissingKeys(t *testing.T) {
	_, _, err := NewEmbedder(context.Background(), Config{Provider: ProviderGemini})
	assert.Error(t, err)

	_, _, err = NewEmbedder(context.Background(), Config{Provider: ProviderOpenAI})
	assert.Error(t, err)
}

func TestOpenAIEmbedder(t *testing.T) {
	var seen map[string]any
	srv := fakeEmbeddingsServer(t, []float32{0.25, 0.5}, &seen)

	e, closeFn, err := NewEmbedder(context.Background(), Config{
		Provider: ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  srv.URL,
		Model:    "text-embedding-3-small",
	})
	require.NoError(t, err)
	defer closeFn()

	vec, err := e.GenerateEmbedding(context.Background(), "Sprzątanie parku")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, vec)
	assert.Equal(t, "text-embedding-3-small", seen["model"])
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("sk-test", srv.URL, "")
	require.NoError(t, err)

	_, err = e.GenerateEmbedding(context.Background(), "x")
	assert.Error(t, err)
}

func TestLocalEmbedder(t *testing.T) {
	srv := fakeEmbeddingsServer(t, []float32{1, 0, 0}, nil)

	e, err := NewLocalEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	vec, err := e.GenerateEmbedding(context.Background(), "koncert charytatywny")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}
