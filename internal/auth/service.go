// Package auth guards the API with a shared API key, or a short-lived JWT
// obtained by exchanging that key.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = time.Hour
	tokenSubject    = "api-client"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Config struct {
	// APIKey is compared in constant time. Ignored when APIKeyHash is set.
	APIKey string
	// APIKeyHash is a bcrypt hash of the API key.
	APIKeyHash string
	// JWTSecret signs issued tokens. A random per-process secret is used when empty.
	JWTSecret string
	TokenTTL  time.Duration
}

type Service struct {
	apiKey     []byte
	apiKeyHash []byte
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	s := &Service{
		apiKey:     []byte(cfg.APIKey),
		apiKeyHash: []byte(cfg.APIKeyHash),
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}

	if len(s.apiKeyHash) > 0 {
		if _, err := bcrypt.Cost(s.apiKeyHash); err != nil {
			return nil, fmt.Errorf("invalid API key hash: %w", err)
		}
	}

	if len(s.secret) == 0 {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
		}
		s.secret = []byte(base64.RawURLEncoding.EncodeToString(buf))
		slog.Warn("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	}
	return s, nil
}

// CheckAPIKey reports whether key is the configured API key. With nothing
// configured every key is rejected.
func (s *Service) CheckAPIKey(key string) bool {
	if key == "" {
		return false
	}
	if len(s.apiKeyHash) > 0 {
		return bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(key)) == nil
	}
	if len(s.apiKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(s.apiKey, []byte(key)) == 1
}

// IssueToken exchanges a valid API key for a signed token.
func (s *Service) IssueToken(key string) (string, time.Time, error) {
	if !s.CheckAPIKey(key) {
		return "", time.Time{}, ErrInvalidCreds
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken verifies signature and expiry and returns the token id.
func (s *Service) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithSubject(tokenSubject))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
