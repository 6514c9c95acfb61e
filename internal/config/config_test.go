package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setBase sets the minimum environment for a valid memory-backed config.
func setBase(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "API_KEY_BCRYPT", "JWT_SECRET", "CORS_ORIGINS",
		"CHROMA_URL", "CHROMA_API_KEY", "DATABASE_URL", "EMBEDDING_MODEL", "GOOGLE_GENAI_KEY",
		"OPENAI_API_KEY", "REDIS_URL", "RATE_LIMIT_ADD", "RATE_LIMIT_QUERY",
		"COLLECTION_NAME", "VOCABULARY_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("API_KEY", "k")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("EMBEDDING_PROVIDER", "local")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBase(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "Ogloszenia", cfg.CollectionName)
	assert.Equal(t, 10, cfg.RateLimitAdd)
	assert.Equal(t, 30, cfg.RateLimitQuery)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	setBase(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.pl, https://b.pl")
	t.Setenv("RATE_LIMIT_ADD", "5")
	t.Setenv("STORE_BACKEND", "PGVECTOR")
	t.Setenv("DATABASE_URL", "postgres://localhost/x")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.pl", "https://b.pl"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.RateLimitAdd)
	assert.Equal(t, BackendPgvector, cfg.StoreBackend)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "sqlite"}, "STORE_BACKEND"},
		{"chroma cloud without key", map[string]string{"STORE_BACKEND": "chroma"}, "CHROMA_API_KEY"},
		{"pgvector without url", map[string]string{"STORE_BACKEND": "pgvector"}, "DATABASE_URL"},
		{"unknown provider", map[string]string{"EMBEDDING_PROVIDER": "bert"}, "EMBEDDING_PROVIDER"},
		{"gemini without key", map[string]string{"EMBEDDING_PROVIDER": "gemini"}, "GOOGLE_GENAI_KEY"},
		{"openai without key", map[string]string{"EMBEDDING_PROVIDER": "openai"}, "OPENAI_API_KEY"},
		{"zero limit", map[string]string{"RATE_LIMIT_QUERY": "0"}, "RATE_LIMIT_QUERY"},
		{"bad limit", map[string]string{"RATE_LIMIT_ADD": "ten"}, "RATE_LIMIT_ADD"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestFromEnv_ChromaTargets(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "chroma")
	t.Setenv("CHROMA_API_KEY", "ck")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.ChromaURL)

	t.Setenv("CHROMA_API_KEY", "")
	t.Setenv("CHROMA_URL", "http://localhost:8000")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ChromaURL)
}

func TestRequireAPIKey(t *testing.T) {
	setBase(t)
	t.Setenv("API_KEY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.RequireAPIKey(), "API_KEY")

	t.Setenv("API_KEY_BCRYPT", "$2a$10$abcdefghijklmnopqrstuuWq0tYJ0gJ1nY3Vx7f9l0q6lQ3o8J5S6")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireAPIKey())
}
