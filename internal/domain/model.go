package domain

import (
	"encoding/json"
	"strings"
)

// ProviderName identifies an upstream geocoding service.
type ProviderName string

const (
	ProviderNominatim ProviderName = "nominatim"
	ProviderPhoton    ProviderName = "photon"
)

// Point is a WGS-84 latitude/longitude coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoCandidate is one coordinate+label result returned by a single provider
// call for one query variant. Position is nil when the provider omitted or
// mangled the coordinates.
type GeoCandidate struct {
	Provider ProviderName `json:"provider"`
	Position *Point       `json:"position,omitempty"`
	Display  string       `json:"display"`
	PlaceID  string       `json:"place_id,omitempty"`
	Score    float64      `json:"score"`
}

// ResolvedLocation is the accepted coordinate for a query.
type ResolvedLocation struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Display string  `json:"display"`
}

// GeoResolution is the outcome of resolving a free-text query. Location is
// nil when no candidate cleared the confidence threshold; Score still
// carries the best score seen so callers can tell "close miss" from "nothing".
type GeoResolution struct {
	Query           string            `json:"query"`
	Provider        ProviderName      `json:"provider,omitempty"`
	Location        *ResolvedLocation `json:"location"`
	Score           float64           `json:"score"`
	Variants        []string          `json:"variants"`
	CandidatesCount int               `json:"candidates_count"`
	Error           *UpstreamError    `json:"error,omitempty"`
}

// Matched reports whether the resolution produced a location.
func (r GeoResolution) Matched() bool {
	return r.Location != nil
}

// ReverseResult is a provider's answer to a coordinate lookup. Raw keeps the
// provider payload untouched for callers that want structured address parts.
type ReverseResult struct {
	Display string          `json:"display"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Store is a catalog record. It is owned by the catalog and never mutated here.
type Store struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Address   string  `json:"address_db"`
	District  string  `json:"district"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	OpenTime  string  `json:"open_time,omitempty"`  // "HH:MM", empty when unknown
	CloseTime string  `json:"close_time,omitempty"` // "HH:MM", empty when unknown
	Is24h     bool    `json:"is_24h"`
}

// Position returns the store's coordinates.
func (s Store) Position() Point {
	return Point{Lat: s.Lat, Lon: s.Lon}
}

// StoreHit is a store with its distance from a search center. This is the
// cacheable unit of a radius search.
type StoreHit struct {
	Store      Store    `json:"store"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// StoreResult is the read-time view of a store. IsOpenNow and BusinessHours
// are derived from the store hours at the moment of the response.
type StoreResult struct {
	Store
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	IsOpenNow     *bool    `json:"is_open_now"`
	BusinessHours string   `json:"business_hours"`
}

// RouteProfile is a routing mode supported by the routing provider.
type RouteProfile string

const (
	ProfileDriving RouteProfile = "driving"
	ProfileWalking RouteProfile = "walking"
	ProfileCycling RouteProfile = "cycling"
)

// ParseRouteProfile maps free text to a profile, falling back to driving.
func ParseRouteProfile(s string) RouteProfile {
	switch p := RouteProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case ProfileWalking, ProfileCycling:
		return p
	default:
		return ProfileDriving
	}
}

// RouteResult is a routing-provider answer passed through to callers. Routes
// are kept verbatim; only the envelope is ours.
type RouteResult struct {
	Profile RouteProfile      `json:"profile"`
	From    Point             `json:"from"`
	To      Point             `json:"to"`
	Routes  []json.RawMessage `json:"routes"`
}
