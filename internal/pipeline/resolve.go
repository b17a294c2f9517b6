package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/store-locator/internal/domain"
)

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.GeoResolution, error)
}

// GeocodeTransformer implements Transformer with a Geocoder, so batch
// requests share the service cache and throttle.
type GeocodeTransformer struct {
	geocoder Geocoder
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewTransformer creates a GeocodeTransformer. A nil clock means real time.
func NewTransformer(geocoder Geocoder, clock clockwork.Clock, logger *slog.Logger) *GeocodeTransformer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GeocodeTransformer{geocoder: geocoder, clock: clock, logger: logger}
}

// Transform decodes and resolves one request. Requests the locator rejects
// still produce a result carrying the error, so callers always get an answer.
// Only undecodable messages and cancellation return an error.
func (t *GeocodeTransformer) Transform(ctx context.Context, msg domain.BatchMessage) (domain.GeocodeResult, error) {
	req, err := domain.ParseGeocodeRequest(msg)
	if err != nil {
		return domain.GeocodeResult{}, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	out := domain.GeocodeResult{ID: req.ID, Query: req.Query}
	res, err := t.geocoder.Geocode(ctx, req.Query)
	switch {
	case err == nil:
		out.Resolution = &res
	case errors.Is(err, domain.ErrInvalidInput):
		out.Error = err.Error()
	default:
		return domain.GeocodeResult{}, err
	}
	out.ProcessedAt = t.clock.Now().UTC()

	t.logger.Debug("batch request resolved", "id", out.ID, "outcome", out.Outcome())
	return out, nil
}
