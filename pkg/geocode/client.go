// Package geocode resolves free-text addresses to coordinates via the
// Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	// MaxResults caps the number of places returned by Search.
	MaxResults = 5
	// MinQueryLength is the shortest query, in runes, worth sending.
	MinQueryLength = 3
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = eris.New("geocode: google api key not configured")

// Client searches for places matching an address query.
type Client interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// Place is one geocoding match.
type Place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	Quality     string  `json:"quality"` // "rooftop", "range", "centroid", "approximate"
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLanguage sets the language results are formatted in.
func WithLanguage(lang string) Option {
	return func(g *geocoder) {
		g.language = lang
	}
}

type geocoder struct {
	httpClient *http.Client
	googleKey  string
	language   string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client using the given Google API key.
func NewClient(googleKey string, opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		googleKey:  googleKey,
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *geocoder) Search(ctx context.Context, query string) ([]Place, error) {
	return g.searchGoogle(ctx, query)
}
