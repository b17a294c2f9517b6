// Package photon adapts the Komoot Photon geocoder to domain.Provider.
// Photon answers with GeoJSON features and no single display string, so the
// display text is assembled from the structured address properties.
package photon

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/domain"
)

// DefaultBaseURL is the public Photon instance.
const DefaultBaseURL = "https://photon.komoot.io"

const maxResults = 8

// Client implements domain.Provider against Photon.
type Client struct {
	up          *upstream.Client
	baseURL     string
	countryCode string
}

// NewClient creates a Photon client. Photon has no country parameter, so
// filtered searches drop features whose country code differs from countryCode.
func NewClient(up *upstream.Client, baseURL, countryCode string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		up:          up,
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: strings.ToUpper(countryCode),
	}
}

func (c *Client) Name() domain.ProviderName { return domain.ProviderPhoton }

// Search looks up a query. A malformed body yields no candidates, not an error.
func (c *Client) Search(ctx context.Context, query string, countryFilter bool) ([]domain.GeoCandidate, error) {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(maxResults)},
		"lang":  {"en"},
	}
	body, err := c.up.Get(ctx, string(domain.ProviderPhoton), "search", c.baseURL+"/api/", params, query)
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		c.up.RecordEmpty(string(domain.ProviderPhoton), "search")
		return nil, nil
	}

	var out []domain.GeoCandidate
	for _, f := range fc.Features {
		if len(out) == maxResults {
			break
		}
		if countryFilter && c.countryCode != "" && f.Properties.CountryCode != "" &&
			!strings.EqualFold(f.Properties.CountryCode, c.countryCode) {
			continue
		}
		out = append(out, f.candidate())
	}
	if len(out) == 0 {
		c.up.RecordEmpty(string(domain.ProviderPhoton), "search")
	}
	return out, nil
}

// Reverse looks up the nearest feature to a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (domain.ReverseResult, error) {
	params := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"lang": {"en"},
	}
	query := params.Get("lat") + "," + params.Get("lon")

	body, err := c.up.Get(ctx, string(domain.ProviderPhoton), "reverse", c.baseURL+"/reverse", params, query)
	if err != nil {
		return domain.ReverseResult{}, err
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil || len(fc.Features) == 0 {
		c.up.RecordEmpty(string(domain.ProviderPhoton), "reverse")
		return domain.ReverseResult{}, nil
	}
	display := fc.Features[0].Properties.display()
	if display == "" {
		c.up.RecordEmpty(string(domain.ProviderPhoton), "reverse")
		return domain.ReverseResult{}, nil
	}
	return domain.ReverseResult{Display: display, Raw: json.RawMessage(body)}, nil
}

// Photon API response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat] or [lon, lat, elevation]
	} `json:"geometry"`
	Properties properties `json:"properties"`
}

type properties struct {
	OSMID       int64  `json:"osm_id"`
	Name        string `json:"name"`
	HouseNumber string `json:"housenumber"`
	Street      string `json:"street"`
	City        string `json:"city"`
	District    string `json:"district"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
}

// display joins the non-empty address parts, most specific first.
func (p properties) display() string {
	street := strings.TrimSpace(p.HouseNumber + " " + p.Street)
	var parts []string
	for _, s := range []string{p.Name, street, p.City, p.District, p.State, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func (f feature) candidate() domain.GeoCandidate {
	c := domain.GeoCandidate{
		Provider: domain.ProviderPhoton,
		Display:  f.Properties.display(),
	}
	if f.Properties.OSMID != 0 {
		c.PlaceID = strconv.FormatInt(f.Properties.OSMID, 10)
	}
	if coords := f.Geometry.Coordinates; len(coords) >= 2 {
		if p := (domain.Point{Lat: coords[1], Lon: coords[0]}); p.Valid() {
			c.Position = &p
		}
	}
	return c
}
