package locator

import (
	"context"
	"errors"

	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/domain"
)

const maxAlternatives = 3

// RouteQuery asks for a route between two points.
type RouteQuery struct {
	From, To domain.Point
	// Profile is driving, walking, or cycling; anything else means driving.
	Profile string
	// Alternatives is clamped to 0..3.
	Alternatives int
}

// Route proxies the routing provider. Unlike geocoding there is no
// fallback, so provider failures are returned as *domain.UpstreamError.
func (s *Service) Route(ctx context.Context, q RouteQuery) (domain.RouteResult, error) {
	if !q.From.Valid() || !q.To.Valid() {
		return domain.RouteResult{}, domain.InvalidInput("from/to out of range")
	}
	if s.router == nil {
		return domain.RouteResult{}, errors.New("routing is not configured")
	}
	profile := domain.ParseRouteProfile(q.Profile)
	alternatives := max(0, min(q.Alternatives, maxAlternatives))

	params := cache.Params{
		"profile":      string(profile),
		"from":         []float64{q.From.Lat, q.From.Lon},
		"to":           []float64{q.To.Lat, q.To.Lon},
		"alternatives": alternatives,
	}
	return cache.Fetch(ctx, s.cache, prefixRoute, params, s.opts.TTL.Route,
		func(ctx context.Context) (domain.RouteResult, bool, error) {
			res, err := s.router.Route(ctx, profile, q.From, q.To, alternatives)
			if err != nil {
				s.logger.Warn("route failed", "profile", profile, "error", err)
				return domain.RouteResult{}, false, err
			}
			return res, true, nil
		})
}
