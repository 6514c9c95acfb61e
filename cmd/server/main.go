package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogloszenia/opportunity-board/internal/api"
	"github.com/ogloszenia/opportunity-board/internal/app"
	"github.com/ogloszenia/opportunity-board/internal/auth"
	"github.com/ogloszenia/opportunity-board/internal/config"
	"github.com/ogloszenia/opportunity-board/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireAPIKey()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := app.SetupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialise collaborators", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	authService, err := auth.NewService(auth.Config{
		APIKey:     cfg.APIKey,
		APIKeyHash: cfg.APIKeyBcrypt,
		JWTSecret:  cfg.JWTSecret,
	})
	if err != nil {
		logger.Error("failed to initialise auth", "error", err)
		os.Exit(1)
	}

	opts := api.Options{CORSOrigins: cfg.CORSOrigins}
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		opts.AddLimiter = ratelimit.NewRedisStore(client, "add_opportunity", ratelimit.PerMinute(cfg.RateLimitAdd))
		opts.QueryLimiter = ratelimit.NewRedisStore(client, "query", ratelimit.PerMinute(cfg.RateLimitQuery))
		opts.TokenLimiter = ratelimit.NewRedisStore(client, "auth_token", ratelimit.PerMinute(cfg.RateLimitAdd))
	} else {
		opts.AddLimiter = ratelimit.NewMemoryStore(ratelimit.PerMinute(cfg.RateLimitAdd))
		opts.QueryLimiter = ratelimit.NewMemoryStore(ratelimit.PerMinute(cfg.RateLimitQuery))
		opts.TokenLimiter = ratelimit.NewMemoryStore(ratelimit.PerMinute(cfg.RateLimitAdd))
	}

	srv := api.NewServer(components.Ingest(), components.Search(), components.Vocabulary, authService, opts)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Port) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
