package domain

import "context"

// Provider is a third-party geocoding service. Each adapter maps its native
// response schema into GeoCandidate; new services are added by implementing
// this interface.
type Provider interface {
	// Name identifies the provider in candidates, logs, and metrics.
	Name() ProviderName

	// Search resolves a query variant into candidates. When countryFilter is
	// set the provider restricts results to the configured country. A
	// malformed response body yields no candidates and no error.
	Search(ctx context.Context, query string, countryFilter bool) ([]GeoCandidate, error)

	// Reverse converts coordinates to a place description.
	Reverse(ctx context.Context, lat, lon float64) (ReverseResult, error)
}
