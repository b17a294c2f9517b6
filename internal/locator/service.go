// Package locator resolves free-text Vietnamese addresses to coordinates and
// answers store searches around them. It owns the fallback chain across
// geocoding providers, result caching, and the nearest-store center
// selection; providers, the catalog, and the cache are injected.
package locator

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/spatial"
)

// Cache prefixes, one per cached operation.
const (
	prefixGeocode   = "geocode"
	prefixReverse   = "geo_rev"
	prefixSuggest   = "suggest"
	prefixRadius    = "stores_radius"
	prefixDistricts = "districts"
	prefixRoute     = "route"
)

// Router computes routes between two points.
type Router interface {
	Route(ctx context.Context, profile domain.RouteProfile, from, to domain.Point, alternatives int) (domain.RouteResult, error)
}

// TTLs are the cache lifetimes per operation.
type TTLs struct {
	Geocode time.Duration
	Search  time.Duration
	Suggest time.Duration
	Reverse time.Duration
	Route   time.Duration
}

// DefaultTTLs mirrors the service defaults.
var DefaultTTLs = TTLs{
	Geocode: 6 * time.Hour,
	Search:  10 * time.Minute,
	Suggest: 30 * time.Minute,
	Reverse: time.Hour,
	Route:   30 * time.Minute,
}

// Options tune resolution and search behavior.
type Options struct {
	// Threshold is the minimum candidate score accepted as a match.
	Threshold float64
	// DefaultCenter is the search center when nothing better is known.
	DefaultCenter domain.Point
	// DefaultBrand is used by NearestStore when the request names no brand.
	DefaultBrand string
	// Location is the time zone store hours are expressed in.
	Location *time.Location
	TTL      TTLs
}

// DefaultOptions returns the Ho Chi Minh City defaults.
func DefaultOptions() Options {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*3600)
	}
	return Options{
		Threshold:     domain.DefaultConfidenceThreshold,
		DefaultCenter: domain.Point{Lat: 10.7769, Lon: 106.7009},
		DefaultBrand:  "CIRCLEK",
		Location:      loc,
		TTL:           DefaultTTLs,
	}
}

// Service implements the locator operations.
type Service struct {
	providers []domain.Provider
	router    Router
	catalog   catalog.Catalog
	engine    *spatial.Engine
	cache     *cache.Cache
	opts      Options
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Service. providers are tried in order; the first one also
// serves suggestions. c may be nil to disable caching.
func New(providers []domain.Provider, router Router, cat catalog.Catalog, c *cache.Cache, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		providers: providers,
		router:    router,
		catalog:   cat,
		engine:    spatial.NewEngine(cat),
		cache:     c,
		opts:      opts,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckReadiness reports whether the catalog is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.catalog.Ping(ctx)
}

// clamp bounds v to [lo, hi]; zero means def.
func clamp(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	return max(lo, min(v, hi))
}
