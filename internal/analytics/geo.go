package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// UnknownLocation is recorded when lookup fails or times out.
	UnknownLocation = "Unknown"

	// DefaultGeoTimeout bounds the auxiliary lookup so a slow or
	// unreachable geo service never delays event recording.
	DefaultGeoTimeout = 2 * time.Second
)

// GeoResolver resolves a visitor IP to a coarse "City, Region" label.
// Lookup failures are swallowed; the resolver always returns a label.
type GeoResolver struct {
	endpoint string // e.g. "https://ipapi.co"
	client   *http.Client
	logger   *slog.Logger
	timeout  time.Duration
}

// NewGeoResolver creates a resolver against an ipapi-style endpoint.
// An empty endpoint disables lookups entirely.
func NewGeoResolver(endpoint string, timeout time.Duration, logger *slog.Logger) *GeoResolver {
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	return &GeoResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("component", "analytics.geo"),
		timeout:  timeout,
	}
}

// geoResponse is the subset of the lookup response we use.
type geoResponse struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country_name"`
}

// Resolve returns "City, Region" for the IP, or UnknownLocation on any
// failure. It never returns an error: location is best-effort metadata.
func (g *GeoResolver) Resolve(ctx context.Context, ip string) string {
	if g.endpoint == "" || ip == "" {
		return UnknownLocation
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/json/", g.endpoint, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UnknownLocation
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("geo lookup failed", "error", err)
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UnknownLocation
	}

	if body.City == "" || body.Region == "" {
		return UnknownLocation
	}
	return fmt.Sprintf("%s, %s", body.City, body.Region)
}
