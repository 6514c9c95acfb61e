// Package config loads and validates environment variables at startup.
// Fail-fast: an invalid or missing required variable stops the process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendChroma   = "chroma"
	BackendPgvector = "pgvector"
	BackendMemory   = "memory"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultPort       = "5001"
	DefaultCollection = "Ogloszenia"
)

// Config holds all runtime configuration for the server and the tools.
type Config struct {
	Port     string
	LogLevel slog.Level

	APIKey       string
	APIKeyBcrypt string
	JWTSecret    string
	CORSOrigins  []string

	StoreBackend   string
	ChromaURL      string
	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string
	CollectionName string
	DatabaseURL    string

	EmbeddingProvider  string
	EmbeddingModel     string
	GoogleGenAIKey     string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	LocalEmbeddingHost string

	GeocoderURL       string
	GeocoderUserAgent string

	RedisURL       string
	RateLimitAdd   int // requests per minute
	RateLimitQuery int // requests per minute

	VocabularyFile string
}

// Load reads an optional .env file from the working directory, then the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a validated Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", DefaultPort),
		APIKey:             os.Getenv("API_KEY"),
		APIKeyBcrypt:       os.Getenv("API_KEY_BCRYPT"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSOrigins:        splitCSV(getenv("CORS_ORIGINS", "*")),
		StoreBackend:       strings.ToLower(getenv("STORE_BACKEND", BackendChroma)),
		ChromaURL:          os.Getenv("CHROMA_URL"),
		ChromaAPIKey:       os.Getenv("CHROMA_API_KEY"),
		ChromaTenant:       os.Getenv("CHROMA_TENANT"),
		ChromaDatabase:     os.Getenv("CHROMA_DATABASE"),
		CollectionName:     getenv("COLLECTION_NAME", DefaultCollection),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		EmbeddingProvider:  strings.ToLower(getenv("EMBEDDING_PROVIDER", ProviderGemini)),
		EmbeddingModel:     os.Getenv("EMBEDDING_MODEL"),
		GoogleGenAIKey:     os.Getenv("GOOGLE_GENAI_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		LocalEmbeddingHost: os.Getenv("LOCAL_EMBEDDING_HOST"),
		GeocoderURL:        os.Getenv("GEOCODER_URL"),
		GeocoderUserAgent:  os.Getenv("GEOCODER_USER_AGENT"),
		RedisURL:           os.Getenv("REDIS_URL"),
		VocabularyFile:     os.Getenv("VOCABULARY_FILE"),
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.RateLimitAdd, err = positiveInt("RATE_LIMIT_ADD", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitQuery, err = positiveInt("RATE_LIMIT_QUERY", 30); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireAPIKey fails unless an API key is configured. Only the server
// needs one; the tools talk to the store directly.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" && c.APIKeyBcrypt == "" {
		return errors.New("API_KEY or API_KEY_BCRYPT is required")
	}
	return nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendChroma:
		// Without CHROMA_URL the client targets Chroma Cloud, which needs a key.
		if c.ChromaURL == "" && c.ChromaAPIKey == "" {
			return errors.New("CHROMA_API_KEY is required when CHROMA_URL is not set")
		}
	case BackendPgvector:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the pgvector backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of chroma, pgvector, memory, got %q", c.StoreBackend)
	}

	switch c.EmbeddingProvider {
	case ProviderGemini:
		if c.GoogleGenAIKey == "" {
			return errors.New("GOOGLE_GENAI_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of gemini, openai, local, got %q", c.EmbeddingProvider)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", s)
	}
	return level, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
