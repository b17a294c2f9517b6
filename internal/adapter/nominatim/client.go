// Package nominatim adapts the OpenStreetMap Nominatim API to domain.Provider.
package nominatim

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/domain"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// maxResults caps candidates taken from one search.
const maxResults = 8

// Client implements domain.Provider against Nominatim's jsonv2 API.
type Client struct {
	up          *upstream.Client
	baseURL     string
	countryCode string
}

// NewClient creates a Nominatim client. countryCode restricts filtered
// searches (e.g. "vn").
func NewClient(up *upstream.Client, baseURL, countryCode string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		up:          up,
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
	}
}

func (c *Client) Name() domain.ProviderName { return domain.ProviderNominatim }

// Search looks up a query. A malformed body yields no candidates, not an error.
func (c *Client) Search(ctx context.Context, query string, countryFilter bool) ([]domain.GeoCandidate, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {strconv.Itoa(maxResults)},
		"addressdetails": {"1"},
	}
	if countryFilter && c.countryCode != "" {
		params.Set("countrycodes", c.countryCode)
	}

	body, err := c.up.Get(ctx, string(domain.ProviderNominatim), "search", c.baseURL+"/search", params, query)
	if err != nil {
		return nil, err
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil || len(places) == 0 {
		c.up.RecordEmpty(string(domain.ProviderNominatim), "search")
		return nil, nil
	}

	out := make([]domain.GeoCandidate, 0, min(len(places), maxResults))
	for _, p := range places[:min(len(places), maxResults)] {
		out = append(out, p.candidate())
	}
	return out, nil
}

// Reverse looks up the address at a coordinate. An empty Display means
// Nominatim had nothing there.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (domain.ReverseResult, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}
	query := params.Get("lat") + "," + params.Get("lon")

	body, err := c.up.Get(ctx, string(domain.ProviderNominatim), "reverse", c.baseURL+"/reverse", params, query)
	if err != nil {
		return domain.ReverseResult{}, err
	}

	var p place
	if err := json.Unmarshal(body, &p); err != nil || p.DisplayName == "" {
		c.up.RecordEmpty(string(domain.ProviderNominatim), "reverse")
		return domain.ReverseResult{}, nil
	}
	return domain.ReverseResult{Display: p.DisplayName, Raw: json.RawMessage(body)}, nil
}

// Nominatim API response types. Coordinates arrive as decimal strings.

type place struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
}

func (p place) candidate() domain.GeoCandidate {
	c := domain.GeoCandidate{
		Provider: domain.ProviderNominatim,
		Display:  p.DisplayName,
		PlaceID:  p.PlaceID.String(),
	}
	lat, errLat := strconv.ParseFloat(p.Lat, 64)
	lon, errLon := strconv.ParseFloat(p.Lon, 64)
	if errLat == nil && errLon == nil {
		if pos := (domain.Point{Lat: lat, Lon: lon}); pos.Valid() {
			c.Position = &pos
		}
	}
	return c
}
