// Package ratelimit caps requests per caller and route.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// Limit allows Requests per Window for one caller.
type Limit struct {
	Requests int
	Window   time.Duration
}

func PerMinute(n int) Limit {
	return Limit{Requests: n, Window: time.Minute}
}

// MemoryStore is a fixed-window counter kept in process memory, so each
// replica enforces its own quota.
type MemoryStore struct {
	mu      sync.Mutex
	limit   Limit
	now     func() time.Time
	counts  map[string]windowCount
	current int64
}

type windowCount struct {
	window int64
	count  int
}

var _ middleware.RateLimiterStore = (*MemoryStore)(nil)

func NewMemoryStore(limit Limit) *MemoryStore {
	return &MemoryStore{
		limit:  limit,
		now:    time.Now,
		counts: make(map[string]windowCount),
	}
}

func (s *MemoryStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := windowIndex(s.now(), s.limit.Window)
	if window != s.current {
		// Counters from earlier windows can never be read again.
		for id, wc := range s.counts {
			if wc.window < window {
				delete(s.counts, id)
			}
		}
		s.current = window
	}

	wc := s.counts[identifier]
	if wc.window != window {
		wc = windowCount{window: window}
	}
	wc.count++
	s.counts[identifier] = wc
	return wc.count <= s.limit.Requests, nil
}

func windowIndex(t time.Time, window time.Duration) int64 {
	return t.UnixNano() / int64(window)
}

// RedisStore is a fixed-window counter shared by every replica using the
// same Redis.
type RedisStore struct {
	client redis.Cmdable
	name   string
	limit  Limit
	now    func() time.Time
	logger *slog.Logger
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

// NewRedisStore counts under keys prefixed with name, so separate routes
// keep separate quotas.
func NewRedisStore(client redis.Cmdable, name string, limit Limit) *RedisStore {
	return &RedisStore{
		client: client,
		name:   name,
		limit:  limit,
		now:    time.Now,
		logger: slog.Default().With("component", "ratelimit", "route", name),
	}
}

// Allow fails open: a Redis outage is logged and the request goes through.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := s.key(identifier)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limit check failed, allowing request", "error", err)
		return true, nil
	}
	return incr.Val() <= int64(s.limit.Requests), nil
}

func (s *RedisStore) key(identifier string) string {
	window := windowIndex(s.now(), s.limit.Window)
	return "ratelimit:" + s.name + ":" + identifier + ":" + strconv.FormatInt(window, 10)
}

// Middleware limits by client IP and answers 429 {"error": ...} once the
// quota is spent.
func Middleware(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded"})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Unable to identify client"})
		},
	})
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
