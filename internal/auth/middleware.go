package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	APIKeyHeader = "x-api-key"

	// ClientKey holds how the caller authenticated: "api-key" or the token id.
	ClientKey = "auth_client"
)

// Middleware accepts either the x-api-key header or a bearer token issued
// by IssueToken. Anything else gets 401 {"error":"Unauthorized"}.
func Middleware(s *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if key := req.Header.Get(APIKeyHeader); key != "" && s.CheckAPIKey(key) {
				c.Set(ClientKey, "api-key")
				return next(c)
			}

			authHeader := req.Header.Get(echo.HeaderAuthorization)
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if id, err := s.ParseToken(parts[1]); err == nil {
					c.Set(ClientKey, id)
					return next(c)
				}
			}

			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
	}
}
