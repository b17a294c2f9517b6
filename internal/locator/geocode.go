package locator

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/domain"
)

const (
	// minQueryLen is the shortest query sent to a provider.
	minQueryLen = 3

	// maxGeocodeVariants bounds the variants tried per provider.
	maxGeocodeVariants = 5

	// maxSuggestVariants bounds the variants tried for suggestions.
	maxSuggestVariants = 4

	// maxReportedVariants bounds the variants echoed in a suggestion payload.
	maxReportedVariants = 6
)

// searchOutcome is the result of one provider call for one variant.
type searchOutcome struct {
	provider   domain.ProviderName
	variant    string
	candidates []domain.GeoCandidate
	err        error
}

// searches calls each provider with each variant in turn. A provider's
// remaining variants are skipped after its first non-empty answer, and
// nothing is called once the consumer stops ranging.
func searches(ctx context.Context, providers []domain.Provider, variants []string, countryFilter bool) iter.Seq[searchOutcome] {
	return func(yield func(searchOutcome) bool) {
		for _, p := range providers {
			for _, v := range variants {
				cands, err := p.Search(ctx, v, countryFilter)
				if !yield(searchOutcome{provider: p.Name(), variant: v, candidates: cands, err: err}) {
					return
				}
				if err == nil && len(cands) > 0 {
					break
				}
			}
		}
	}
}

// asUpstream converts a provider error into the diagnostic form.
func asUpstream(provider domain.ProviderName, query string, err error) *domain.UpstreamError {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	return &domain.UpstreamError{
		Provider: string(provider),
		Kind:     domain.UpstreamUnavailable,
		Message:  err.Error(),
		Query:    query,
	}
}

// Geocode resolves a free-text address. Provider failures never fail the
// call; they degrade to an unmatched resolution carrying the last error.
func (s *Service) Geocode(ctx context.Context, query string) (domain.GeoResolution, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minQueryLen {
		return domain.GeoResolution{}, domain.InvalidInput("q must be at least %d characters", minQueryLen)
	}

	params := cache.Params{"q": q}
	res, err := cache.Fetch(ctx, s.cache, prefixGeocode, params, s.opts.TTL.Geocode,
		func(ctx context.Context) (domain.GeoResolution, bool, error) {
			res, err := s.resolve(ctx, q)
			// Transient provider failures are retried on the next request.
			return res, res.Matched() || res.Error == nil, err
		})
	if err != nil {
		return domain.GeoResolution{}, err
	}

	outcome := "unmatched"
	if res.Matched() {
		outcome = "matched"
	}
	s.metrics.Resolutions.WithLabelValues(outcome).Inc()
	return res, nil
}

func (s *Service) resolve(ctx context.Context, q string) (domain.GeoResolution, error) {
	variants := domain.FallbackVariants(q)
	tried := variants[:min(len(variants), maxGeocodeVariants)]

	var (
		candidates []domain.GeoCandidate
		lastErr    *domain.UpstreamError
	)
	for out := range searches(ctx, s.providers, tried, true) {
		if err := ctx.Err(); err != nil {
			return domain.GeoResolution{}, err
		}
		if out.err != nil {
			lastErr = asUpstream(out.provider, out.variant, out.err)
			s.logger.Warn("geocode provider failed", "provider", out.provider, "query", out.variant, "error", out.err)
			continue
		}
		candidates = append(candidates, out.candidates...)
	}

	res := domain.BuildResolution(q, variants, candidates, lastErr, s.opts.Threshold)
	s.logger.Debug("geocode resolved",
		"query", q,
		"provider", res.Provider,
		"score", res.Score,
		"candidates", res.CandidatesCount,
	)
	return res, nil
}

// ReverseResult is the outcome of a coordinate lookup. Display is empty
// when no provider answered.
type ReverseResult struct {
	Lat            float64               `json:"lat"`
	Lon            float64               `json:"lon"`
	Provider       domain.ProviderName   `json:"provider,omitempty"`
	Display        string                `json:"display"`
	DisplayAddress string                `json:"display_address"`
	Raw            json.RawMessage       `json:"raw,omitempty"`
	Error          *domain.UpstreamError `json:"error,omitempty"`
}

// Matched reports whether a provider described the coordinates.
func (r ReverseResult) Matched() bool {
	return r.Display != ""
}

// ReverseGeocode describes a coordinate using the first provider that
// answers. Only successful lookups are cached.
func (s *Service) ReverseGeocode(ctx context.Context, p domain.Point) (ReverseResult, error) {
	if !p.Valid() {
		return ReverseResult{}, domain.InvalidInput("lat/lon out of range")
	}

	params := cache.Params{"lat": p.Lat, "lon": p.Lon}
	return cache.Fetch(ctx, s.cache, prefixReverse, params, s.opts.TTL.Reverse,
		func(ctx context.Context) (ReverseResult, bool, error) {
			res := ReverseResult{Lat: p.Lat, Lon: p.Lon}
			for _, prov := range s.providers {
				r, err := prov.Reverse(ctx, p.Lat, p.Lon)
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ReverseResult{}, false, ctxErr
				}
				if err != nil {
					res.Error = asUpstream(prov.Name(), "", err)
					s.logger.Warn("reverse provider failed", "provider", prov.Name(), "error", err)
					continue
				}
				if r.Display == "" {
					continue
				}
				res.Provider = prov.Name()
				res.Display = r.Display
				res.DisplayAddress = r.Display
				res.Raw = r.Raw
				res.Error = nil
				return res, true, nil
			}
			return res, false, nil
		})
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Display string  `json:"display"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	PlaceID string  `json:"place_id,omitempty"`
}

// Suggestions is the autocomplete answer for a query.
type Suggestions struct {
	Query    string                `json:"q"`
	Items    []Suggestion          `json:"items"`
	Variants []string              `json:"variants"`
	Error    *domain.UpstreamError `json:"error,omitempty"`
}

// Suggest lists places matching a partial query using the primary provider
// only. Short queries get an empty list rather than an error.
func (s *Service) Suggest(ctx context.Context, query string) (Suggestions, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minQueryLen || len(s.providers) == 0 {
		return Suggestions{Query: q, Items: []Suggestion{}, Variants: []string{}}, nil
	}

	params := cache.Params{"q": q}
	return cache.Fetch(ctx, s.cache, prefixSuggest, params, s.opts.TTL.Suggest,
		func(ctx context.Context) (Suggestions, bool, error) {
			res, err := s.suggest(ctx, q)
			return res, len(res.Items) > 0 || res.Error == nil, err
		})
}

func (s *Service) suggest(ctx context.Context, q string) (Suggestions, error) {
	variants := domain.Variants(q)
	primary := s.providers[:1]
	res := Suggestions{
		Query:    q,
		Items:    []Suggestion{},
		Variants: variants[:min(len(variants), maxReportedVariants)],
	}

	var found []domain.GeoCandidate
	for _, v := range variants[:min(len(variants), maxSuggestVariants)] {
		// Country-filtered first, then unfiltered for the same variant.
		for _, filtered := range []bool{true, false} {
			for out := range searches(ctx, primary, []string{v}, filtered) {
				if out.err != nil {
					res.Error = asUpstream(out.provider, out.variant, out.err)
					s.logger.Warn("suggest provider failed", "provider", out.provider, "query", out.variant, "error", out.err)
					continue
				}
				found = out.candidates
			}
			if err := ctx.Err(); err != nil {
				return Suggestions{}, err
			}
			if len(found) > 0 {
				break
			}
		}
		if len(found) > 0 {
			break
		}
	}

	seen := make(map[string]struct{}, len(found))
	for _, c := range found {
		if c.Position == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.Display))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		res.Items = append(res.Items, Suggestion{
			Display: c.Display,
			Lat:     c.Position.Lat,
			Lon:     c.Position.Lon,
			PlaceID: c.PlaceID,
		})
	}
	if len(res.Items) > 0 {
		res.Error = nil
	}
	return res, nil
}
