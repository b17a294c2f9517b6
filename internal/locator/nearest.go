package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
)

const (
	defaultNearestKm  = 0.5
	maxNearestStores  = 300
	defaultPlaceLabel = "TP.HCM"
)

// NearestMode records how the search center was chosen.
type NearestMode string

const (
	ModeLatLonFromText         NearestMode = "latlon_from_text"
	ModeGeocodeAddress         NearestMode = "geocode_address"
	ModeClientAfterGeocodeFail NearestMode = "client_latlon_after_geocode_fail"
	ModeDefaultNoGeocode       NearestMode = "fallback_default_no_geocode"
	ModeClientLatLon           NearestMode = "client_latlon"
	ModeDefault                NearestMode = "default"
)

// NearestQuery describes where the caller is. Every field is optional.
type NearestQuery struct {
	// StoreName is a store or chain name hint, checked for a brand first.
	StoreName string
	Brand     string
	// Text is an address or a "lat,lon" pair.
	Text string
	// Client is the caller's own position, if known.
	Client *domain.Point
	// MaxKm defaults to 0.5 unless it is a finite positive number.
	MaxKm float64
}

// GeocodeInfo summarizes the resolution attempted for the query text.
type GeocodeInfo struct {
	Provider        domain.ProviderName `json:"provider,omitempty"`
	Score           float64             `json:"score"`
	CandidatesCount int                 `json:"candidates_count"`
}

// NearestInput echoes the effective request.
type NearestInput struct {
	StoreName string  `json:"store_name"`
	Text      string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Brand     string  `json:"brand"`
	MaxKm     float64 `json:"max_km"`
}

// NearestLocation is the chosen search center.
type NearestLocation struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	DisplayAddress string  `json:"display_address"`
}

// NearestResult is the nearest store and its runners-up.
type NearestResult struct {
	OK       bool                 `json:"ok"`
	Mode     NearestMode          `json:"mode"`
	Geocode  *GeocodeInfo         `json:"geocode"`
	Input    NearestInput         `json:"input"`
	Location NearestLocation      `json:"location"`
	Store    *domain.StoreResult  `json:"store"`
	Count    int                  `json:"count"`
	Stores   []domain.StoreResult `json:"stores"`
	Message  string               `json:"message"`
}

// NearestStore picks a search center and lists the brand's stores within
// q.MaxKm of it. The center is, in order of preference: coordinates typed
// as text, the geocoded text, the client position, the default center.
// Missing input never fails the call.
func (s *Service) NearestStore(ctx context.Context, q NearestQuery) (NearestResult, error) {
	brand := domain.NormalizeBrand(q.StoreName)
	if brand == "" {
		brand = domain.NormalizeBrand(q.Brand)
	}
	if brand == "" {
		brand = s.opts.DefaultBrand
	}
	maxKm := q.MaxKm
	if !domain.ValidRadius(maxKm) {
		maxKm = defaultNearestKm
	}
	text := strings.TrimSpace(q.Text)
	client := q.Client
	if client != nil && !client.Valid() {
		client = nil
	}

	center, mode, info, err := s.pickCenter(ctx, text, client)
	if err != nil {
		return NearestResult{}, err
	}

	hits, err := s.engine.Within(ctx, center, maxKm, catalog.ForBrand(brand, ""))
	if err != nil {
		return NearestResult{}, err
	}
	stores := domain.NewStoreResults(hits[:min(len(hits), maxNearestStores)], s.opts.Location)

	display := text
	if display == "" {
		display = defaultPlaceLabel
	}
	res := NearestResult{
		OK:      len(hits) > 0,
		Mode:    mode,
		Geocode: info,
		Input: NearestInput{
			StoreName: strings.TrimSpace(q.StoreName),
			Text:      text,
			Lat:       center.Lat,
			Lon:       center.Lon,
			Brand:     brand,
			MaxKm:     maxKm,
		},
		Location: NearestLocation{Lat: center.Lat, Lon: center.Lon, DisplayAddress: display},
		Count:    len(hits),
		Stores:   stores,
		Message:  fmt.Sprintf("found %d stores within %g km", len(hits), maxKm),
	}
	if len(stores) > 0 {
		res.Store = &stores[0]
	}
	return res, nil
}

func (s *Service) pickCenter(ctx context.Context, text string, client *domain.Point) (domain.Point, NearestMode, *GeocodeInfo, error) {
	if text == "" {
		if client != nil {
			return *client, ModeClientLatLon, nil, nil
		}
		return s.opts.DefaultCenter, ModeDefault, nil, nil
	}
	if p, ok := domain.ParseLatLon(text); ok {
		return p, ModeLatLonFromText, nil, nil
	}

	res, err := s.Geocode(ctx, text)
	if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
		return domain.Point{}, "", nil, err
	}
	info := &GeocodeInfo{
		Provider:        res.Provider,
		Score:           res.Score,
		CandidatesCount: res.CandidatesCount,
	}
	switch {
	case res.Matched():
		return domain.Point{Lat: res.Location.Lat, Lon: res.Location.Lon}, ModeGeocodeAddress, info, nil
	case client != nil:
		return *client, ModeClientAfterGeocodeFail, info, nil
	default:
		return s.opts.DefaultCenter, ModeDefaultNoGeocode, info, nil
	}
}
