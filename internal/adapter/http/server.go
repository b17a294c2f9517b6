// Package http serves the locator API, health probes, and metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/locator"
	"github.com/couchcryptid/store-locator/internal/observability"
)

// Locator is the set of operations exposed over HTTP.
type Locator interface {
	Geocode(ctx context.Context, query string) (domain.GeoResolution, error)
	ReverseGeocode(ctx context.Context, p domain.Point) (locator.ReverseResult, error)
	Suggest(ctx context.Context, query string) (locator.Suggestions, error)
	RadiusSearch(ctx context.Context, q locator.RadiusQuery) (locator.RadiusResult, error)
	BoundsSearch(ctx context.Context, q locator.BoundsQuery) (locator.BoundsResult, error)
	SearchStores(ctx context.Context, q locator.SearchQuery) (locator.SearchResult, error)
	Districts(ctx context.Context, brand string) (locator.DistrictList, error)
	NearestStore(ctx context.Context, q locator.NearestQuery) (locator.NearestResult, error)
	Route(ctx context.Context, q locator.RouteQuery) (domain.RouteResult, error)
}

// Server exposes the /api routes plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	locator    Locator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, loc Locator, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Geocoding walks several throttled provider calls.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		locator: loc,
		metrics: metrics,
		logger:  logger,
	}

	engine.Use(gin.Recovery(), s.instrument(), cors())

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/geocode", s.handleGeocode)
	api.GET("/reverse", s.handleReverse)
	api.GET("/suggest", s.handleSuggest)
	api.GET("/stores/radius", s.handleRadius)
	api.GET("/stores/bounds", s.handleBounds)
	api.GET("/stores/search", s.handleSearch)
	api.GET("/districts", s.handleDistricts)
	api.GET("/nearest", s.handleNearest)
	api.POST("/nearest", s.handleNearest)
	api.GET("/route", s.handleRoute)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// instrument records request latency by route template and status.
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		s.metrics.HTTPRequests.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed", "route", route, "status", status, "errors", c.Errors.String())
		}
	}
}

// cors allows browser map clients on other origins. Preflight requests are
// answered directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatusJSON(http.StatusOK, envelope{OK: true, Message: "OPTIONS OK"})
			return
		}
		c.Next()
	}
}
