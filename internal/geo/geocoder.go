// Package geo resolves coordinates to a city name.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "opportunity-board/1.0"

	// Nominatim's public usage policy allows one request per second.
	DefaultInterval = time.Second
)

// Geocoder is the lookup the ingest pipeline depends on. It never fails:
// any problem yields models.UnknownLocation.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// Nominatim queries an OpenStreetMap Nominatim reverse endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(DefaultInterval), 1),
		logger:    slog.Default().With("component", "geocoder"),
	}
}

type reverseResponse struct {
	Address struct {
		City string `json:"city"`
		Town string `json:"town"`
	} `json:"address"`
}

func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	name, err := n.lookup(ctx, lat, lon)
	if err != nil {
		n.logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return models.UnknownLocation
	}
	return name
}

func (n *Nominatim) lookup(ctx context.Context, lat, lon float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case out.Address.City != "":
		return out.Address.City, nil
	case out.Address.Town != "":
		return out.Address.Town, nil
	}
	return models.UnknownLocation, nil
}

// Static always answers with the same name. Used when geocoding is disabled.
type Static string

func (s Static) ReverseGeocode(context.Context, float64, float64) string {
	if s == "" {
		return models.UnknownLocation
	}
	return string(s)
}
