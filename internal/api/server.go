// Package api exposes the ingestion and search pipelines over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ogloszenia/opportunity-board/internal/auth"
	"github.com/ogloszenia/opportunity-board/internal/filter"
	"github.com/ogloszenia/opportunity-board/internal/ingest"
	"github.com/ogloszenia/opportunity-board/internal/ratelimit"
	"github.com/ogloszenia/opportunity-board/internal/schema"
	"github.com/ogloszenia/opportunity-board/internal/search"
)

type Options struct {
	CORSOrigins []string
	// Per-route limiter stores; a nil store disables limiting for that route.
	AddLimiter   middleware.RateLimiterStore
	QueryLimiter middleware.RateLimiterStore
	TokenLimiter middleware.RateLimiterStore
}

type Server struct {
	Echo        *echo.Echo
	Ingest      *ingest.Pipeline
	Search      *search.Pipeline
	Vocabulary  *schema.Vocabulary
	AuthService *auth.Service

	logger *slog.Logger
}

func NewServer(ing *ingest.Pipeline, srch *search.Pipeline, vocab *schema.Vocabulary, authService *auth.Service, opts Options) *Server {
	logger := slog.Default().With("component", "api")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'",
	}))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.APIKeyHeader},
	}))

	if vocab == nil {
		vocab = schema.DefaultVocabulary()
	}

	s := &Server{
		Echo:        e,
		Ingest:      ing,
		Search:      srch,
		Vocabulary:  vocab,
		AuthService: authService,
		logger:      logger,
	}
	s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) {
	requireAuth := auth.Middleware(s.AuthService)

	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/vocabulary", s.handleVocabulary)
	s.Echo.POST("/auth/token", s.handleIssueToken, limited(opts.TokenLimiter)...)
	s.Echo.POST("/add_opportunity", s.handleAddOpportunity, append(limited(opts.AddLimiter), requireAuth)...)
	s.Echo.GET("/query", s.handleQuery, append(limited(opts.QueryLimiter), requireAuth)...)
}

func limited(store middleware.RateLimiterStore) []echo.MiddlewareFunc {
	if store == nil {
		return nil
	}
	return []echo.MiddlewareFunc{ratelimit.Middleware(store)}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleVocabulary(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		schema.FieldTags:     s.Vocabulary.Tags,
		schema.FieldWorkload: s.Vocabulary.Workload,
		schema.FieldForm:     s.Vocabulary.Form,
	})
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleIssueToken(c echo.Context) error {
	key := c.Request().Header.Get(auth.APIKeyHeader)
	if key == "" {
		var req tokenRequest
		if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		}
		key = req.APIKey
	}

	token, expires, err := s.AuthService.IssueToken(key)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		s.logger.Error("failed to issue token", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAddOpportunity(c echo.Context) error {
	var data map[string]any
	if err := c.Echo().JSONSerializer.Deserialize(c, &data); err != nil || data == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request body must be a JSON object."})
	}

	id, err := s.Ingest.Submit(c.Request().Context(), data)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":    verr.Error(),
				"problems": verr.Problems,
			})
		}
		s.logger.Error("failed to add opportunity", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":    "success",
		"record_id": id,
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	req := search.Request{
		Text: c.QueryParam("text"),
		Criteria: filter.Criteria{
			Title:     c.QueryParam("title"),
			Location:  c.QueryParam("location"),
			Tags:      c.QueryParam("tags"),
			Form:      c.QueryParam("form"),
			Workload:  c.QueryParam("workload"),
			StartFrom: filter.ParseBound(c.QueryParam("start_date_from")),
			StartTo:   filter.ParseBound(c.QueryParam("start_date_to")),
			EndFrom:   filter.ParseBound(c.QueryParam("end_date_from")),
			EndTo:     filter.ParseBound(c.QueryParam("end_date_to")),
		},
	}

	res, err := s.Search.Run(c.Request().Context(), req)
	if err != nil {
		var ferr *filter.InvalidFilterValueError
		if errors.As(err, &ferr) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   ferr.Error(),
				"allowed": ferr.Allowed,
			})
		}
		s.logger.Error("query failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}

// Start blocks serving on port until the server is shut down.
func (s *Server) Start(port string) error {
	s.logger.Info("server starting", "port", port)
	err := s.Echo.Start(":" + port)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// jsonSerializer writes "&", "<" and ">" as-is and keeps numbers as
// json.Number on input.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
