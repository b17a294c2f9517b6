// Package spatial answers "which stores are near this point" against the
// catalog: a bounding-box pre-filter in the catalog, then exact great-circle
// distance in process.
package spatial

import (
	"context"
	"fmt"
	"sort"

	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
)

// MaxResults caps a radius result set before pagination.
const MaxResults = 2000

// Engine runs spatial queries over a catalog.
type Engine struct {
	catalog    catalog.Catalog
	maxResults int
}

// NewEngine creates an engine over c.
func NewEngine(c catalog.Catalog) *Engine {
	return &Engine{catalog: c, maxResults: MaxResults}
}

// Within returns every store within radiusKm of center, nearest first, capped
// at MaxResults. Stores the box admits but the circle does not are dropped.
func (e *Engine) Within(ctx context.Context, center domain.Point, radiusKm float64, f catalog.Filter) ([]domain.StoreHit, error) {
	if !domain.ValidRadius(radiusKm) {
		return nil, domain.InvalidInput("radius_km must be a finite number > 0")
	}
	if !center.Valid() {
		return nil, domain.InvalidInput("center %v is out of range", center)
	}

	box := domain.Around(center, radiusKm)
	stores, err := e.catalog.FindInBox(ctx, box, f, 0)
	if err != nil {
		return nil, fmt.Errorf("find stores in box: %w", err)
	}

	hits := make([]domain.StoreHit, 0, len(stores))
	for _, s := range stores {
		d := domain.Haversine(center, s.Position())
		if d > radiusKm {
			continue
		}
		hits = append(hits, domain.StoreHit{Store: s, DistanceKm: &d})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].DistanceKm < *hits[j].DistanceKm
	})
	if len(hits) > e.maxResults {
		hits = hits[:e.maxResults]
	}
	return hits, nil
}

// RadiusPage is one page of a radius search. Total counts every match
// before pagination.
type RadiusPage struct {
	Total int
	Hits  []domain.StoreHit
}

// RadiusSearch runs Within and returns the requested page.
func (e *Engine) RadiusSearch(ctx context.Context, center domain.Point, radiusKm float64, f catalog.Filter, limit, offset int) (RadiusPage, error) {
	hits, err := e.Within(ctx, center, radiusKm, f)
	if err != nil {
		return RadiusPage{}, err
	}
	return RadiusPage{Total: len(hits), Hits: Page(hits, offset, limit)}, nil
}

// BoundsSearch returns up to limit stores inside box, in catalog order.
func (e *Engine) BoundsSearch(ctx context.Context, box domain.BoundingBox, f catalog.Filter, limit int) ([]domain.StoreHit, error) {
	stores, err := e.catalog.FindInBox(ctx, box, f, limit)
	if err != nil {
		return nil, fmt.Errorf("find stores in bounds: %w", err)
	}
	hits := make([]domain.StoreHit, len(stores))
	for i, s := range stores {
		hits[i] = domain.StoreHit{Store: s}
	}
	return hits, nil
}

// Page slices hits[offset:offset+limit], clamped to the slice. limit <= 0
// returns everything after offset.
func Page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
