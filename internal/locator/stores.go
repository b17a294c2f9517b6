package locator

import (
	"context"
	"math"
	"strings"

	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/spatial"
)

const (
	allBrands = "ALL"

	defaultRadiusLimit = 300
	maxRadiusLimit     = 1000
	maxRadiusOffset    = 100000

	defaultBoundsLimit = 500
	maxBoundsLimit     = 2000

	defaultSearchLimit = 200
	maxSearchLimit     = 1000
)

// brandKey maps brand text to a catalog brand key. Unknown brands are
// matched literally; empty text means every brand.
func brandKey(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if key := domain.NormalizeBrand(text); key != "" {
		return key
	}
	return strings.ToUpper(text)
}

func brandLabel(key string) string {
	if key == "" {
		return allBrands
	}
	return key
}

// RadiusQuery selects stores within a distance of a center.
type RadiusQuery struct {
	Center   domain.Point
	RadiusKm float64
	Brand    string
	District string
	// Limit defaults to 300 and is clamped to 1..1000.
	Limit int
	// Offset is clamped to 0..100000.
	Offset int
}

// RadiusResult is one page of a radius search. Total counts every match.
type RadiusResult struct {
	Brand    string               `json:"brand"`
	Center   domain.Point         `json:"center"`
	RadiusKm float64              `json:"radius_km"`
	Total    int                  `json:"total"`
	Count    int                  `json:"count"`
	Offset   int                  `json:"offset"`
	Limit    int                  `json:"limit"`
	Stores   []domain.StoreResult `json:"stores"`
}

// RadiusSearch returns stores within q.RadiusKm of q.Center, nearest first.
// The full distance-sorted match list is cached; open-now flags are derived
// when the page is built, so cached entries never carry a stale flag.
func (s *Service) RadiusSearch(ctx context.Context, q RadiusQuery) (RadiusResult, error) {
	if !domain.ValidRadius(q.RadiusKm) {
		return RadiusResult{}, domain.InvalidInput("radius_km must be a finite number > 0")
	}
	if !q.Center.Valid() {
		return RadiusResult{}, domain.InvalidInput("lat/lon out of range")
	}
	limit := clamp(q.Limit, defaultRadiusLimit, 1, maxRadiusLimit)
	offset := max(0, min(q.Offset, maxRadiusOffset))
	brand := brandKey(q.Brand)
	district := strings.TrimSpace(q.District)

	params := cache.Params{
		"lat":       q.Center.Lat,
		"lon":       q.Center.Lon,
		"radius_km": math.Round(q.RadiusKm*1000) / 1000,
		"brand":     brandLabel(brand),
		"district":  strings.ToLower(district),
	}
	hits, err := cache.Fetch(ctx, s.cache, prefixRadius, params, s.opts.TTL.Search,
		func(ctx context.Context) ([]domain.StoreHit, bool, error) {
			hits, err := s.engine.Within(ctx, q.Center, q.RadiusKm, catalog.ForBrand(brand, district))
			return hits, true, err
		})
	if err != nil {
		return RadiusResult{}, err
	}

	page := domain.NewStoreResults(spatial.Page(hits, offset, limit), s.opts.Location)
	return RadiusResult{
		Brand:    brandLabel(brand),
		Center:   q.Center,
		RadiusKm: q.RadiusKm,
		Total:    len(hits),
		Count:    len(page),
		Offset:   offset,
		Limit:    limit,
		Stores:   page,
	}, nil
}

// BoundsQuery selects stores inside a rectangle given by two corners in
// any order.
type BoundsQuery struct {
	South, West, North, East float64
	Brand                    string
	District                 string
	// Limit defaults to 500 and is clamped to 1..2000.
	Limit int
}

// BoundsResult lists stores inside a rectangle, in catalog order.
type BoundsResult struct {
	Brand  string               `json:"brand"`
	Bounds domain.BoundingBox   `json:"bounds"`
	Count  int                  `json:"count"`
	Stores []domain.StoreResult `json:"stores"`
}

// BoundsSearch returns stores inside the rectangle without distance ordering.
func (s *Service) BoundsSearch(ctx context.Context, q BoundsQuery) (BoundsResult, error) {
	box := domain.NewBounds(q.South, q.West, q.North, q.East)
	if !box.Valid() {
		return BoundsResult{}, domain.InvalidInput("bounds out of range")
	}
	brand := brandKey(q.Brand)
	limit := clamp(q.Limit, defaultBoundsLimit, 1, maxBoundsLimit)

	hits, err := s.engine.BoundsSearch(ctx, box, catalog.ForBrand(brand, strings.TrimSpace(q.District)), limit)
	if err != nil {
		return BoundsResult{}, err
	}
	stores := domain.NewStoreResults(hits, s.opts.Location)
	return BoundsResult{
		Brand:  brandLabel(brand),
		Bounds: box,
		Count:  len(stores),
		Stores: stores,
	}, nil
}

// SearchQuery is a free-text catalog search.
type SearchQuery struct {
	Text     string
	Brand    string
	District string
	// Limit defaults to 200 and is clamped to 1..1000.
	Limit int
}

// SearchResult lists stores whose name or address contains the text.
type SearchResult struct {
	Query    string               `json:"q"`
	Brand    string               `json:"brand"`
	District string               `json:"district"`
	Count    int                  `json:"count"`
	Stores   []domain.StoreResult `json:"stores"`
}

// SearchStores matches q.Text against store names and addresses. Empty text
// lists every store passing the filters.
func (s *Service) SearchStores(ctx context.Context, q SearchQuery) (SearchResult, error) {
	text := strings.TrimSpace(q.Text)
	brand := brandKey(q.Brand)
	district := strings.TrimSpace(q.District)
	limit := clamp(q.Limit, defaultSearchLimit, 1, maxSearchLimit)

	stores, err := s.catalog.Search(ctx, text, catalog.ForBrand(brand, district), limit)
	if err != nil {
		return SearchResult{}, err
	}
	hits := make([]domain.StoreHit, len(stores))
	for i, st := range stores {
		hits[i] = domain.StoreHit{Store: st}
	}
	results := domain.NewStoreResults(hits, s.opts.Location)
	return SearchResult{
		Query:    text,
		Brand:    brandLabel(brand),
		District: district,
		Count:    len(results),
		Stores:   results,
	}, nil
}

// DistrictList is the sorted set of districts that have stores.
type DistrictList struct {
	Brand     string   `json:"brand"`
	Districts []string `json:"districts"`
}

// Districts lists the districts with at least one store of the brand.
func (s *Service) Districts(ctx context.Context, brand string) (DistrictList, error) {
	key := brandKey(brand)
	params := cache.Params{"brand": brandLabel(key)}
	districts, err := cache.Fetch(ctx, s.cache, prefixDistricts, params, s.opts.TTL.Geocode,
		func(ctx context.Context) ([]string, bool, error) {
			d, err := s.catalog.Districts(ctx, catalog.ForBrand(key, ""))
			if d == nil {
				d = []string{}
			}
			return d, true, err
		})
	if err != nil {
		return DistrictList{}, err
	}
	return DistrictList{Brand: brandLabel(key), Districts: districts}, nil
}
