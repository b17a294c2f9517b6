package spatial

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
)

var center = domain.Point{Lat: 10.7769, Lon: 106.7009}

// recordingCatalog remembers what the bounding-box pre-filter returned.
type recordingCatalog struct {
	catalog.Catalog
	boxed []domain.Store
	err   error
}

func (r *recordingCatalog) FindInBox(ctx context.Context, box domain.BoundingBox, f catalog.Filter, limit int) ([]domain.Store, error) {
	if r.err != nil {
		return nil, r.err
	}
	stores, err := r.Catalog.FindInBox(ctx, box, f, limit)
	r.boxed = stores
	return stores, err
}

// ring places stores around center at increasing distances and bearings,
// including some in the box corners that lie outside the circle.
func ring() []domain.Store {
	var stores []domain.Store
	id := int64(1)
	for _, dLat := range []float64{-0.0095, -0.006, -0.003, 0, 0.002, 0.0055, 0.0089} {
		for _, dLon := range []float64{-0.0092, -0.004, 0, 0.001, 0.0065, 0.0091} {
			brand := "CIRCLEK"
			if id%3 == 0 {
				brand = "GS25"
			}
			stores = append(stores, domain.Store{
				ID:    id,
				Name:  fmt.Sprintf("Store %d", id),
				Brand: brand,
				Lat:   center.Lat + dLat,
				Lon:   center.Lon + dLon,
			})
			id++
		}
	}
	return stores
}

func TestRadiusSearch_OnlyWithinRadiusSorted(t *testing.T) {
	e := NewEngine(catalog.NewMemory(ring()))

	page, err := e.RadiusSearch(context.Background(), center, 1.0, catalog.Filter{}, 1000, 0)
	require.NoError(t, err)
	require.NotEmpty(t, page.Hits)
	assert.Equal(t, page.Total, len(page.Hits))

	prev := -1.0
	for _, h := range page.Hits {
		require.NotNil(t, h.DistanceKm)
		assert.LessOrEqual(t, *h.DistanceKm, 1.0)
		assert.InDelta(t, domain.Haversine(center, h.Store.Position()), *h.DistanceKm, 1e-12)
		assert.GreaterOrEqual(t, *h.DistanceKm, prev)
		prev = *h.DistanceKm
	}
}

func TestRadiusSearch_TotalCountsBeyondLimit(t *testing.T) {
	e := NewEngine(catalog.NewMemory(ring()))

	all, err := e.RadiusSearch(context.Background(), center, 1.0, catalog.Filter{}, 1000, 0)
	require.NoError(t, err)
	require.Greater(t, all.Total, 5)

	page, err := e.RadiusSearch(context.Background(), center, 1.0, catalog.Filter{}, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, all.Total, page.Total)
	require.Len(t, page.Hits, 5)
	assert.Equal(t, all.Hits[2:7], page.Hits)
}

func TestRadiusSearch_BoxIsSupersetOfResult(t *testing.T) {
	rec := &recordingCatalog{Catalog: catalog.NewMemory(ring())}
	e := NewEngine(rec)

	page, err := e.RadiusSearch(context.Background(), center, 1.0, catalog.Filter{}, 0, 0)
	require.NoError(t, err)

	boxed := make(map[int64]bool, len(rec.boxed))
	for _, s := range rec.boxed {
		boxed[s.ID] = true
	}
	for _, h := range page.Hits {
		assert.True(t, boxed[h.Store.ID], "store %d missing from pre-filter", h.Store.ID)
	}
	assert.Greater(t, len(rec.boxed), page.Total, "corners should be trimmed by the distance filter")

	inCircle := 0
	for _, s := range rec.boxed {
		if domain.Haversine(center, s.Position()) <= 1.0 {
			inCircle++
		}
	}
	assert.Equal(t, inCircle, page.Total)
}

func TestRadiusSearch_BrandFilter(t *testing.T) {
	e := NewEngine(catalog.NewMemory(ring()))

	page, err := e.RadiusSearch(context.Background(), center, 1.0, catalog.ForBrand("GS25", ""), 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, page.Hits)
	for _, h := range page.Hits {
		assert.Equal(t, "GS25", h.Store.Brand)
	}
}

func TestRadiusSearch_CapsResults(t *testing.T) {
	e := NewEngine(catalog.NewMemory(ring()))
	e.maxResults = 4

	page, err := e.RadiusSearch(context.Background(), center, 5.0, catalog.Filter{}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Hits, 4)
}

func TestRadiusSearch_InvalidInput(t *testing.T) {
	e := NewEngine(catalog.NewMemory(nil))

	tests := []struct {
		name     string
		center   domain.Point
		radiusKm float64
	}{
		{"zero radius", center, 0},
		{"negative radius", center, -1},
		{"infinite radius", center, math.Inf(1)},
		{"NaN radius", center, math.NaN()},
		{"latitude out of range", domain.Point{Lat: 95, Lon: 0}, 1},
		{"NaN center", domain.Point{Lat: math.NaN(), Lon: 106.7}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RadiusSearch(context.Background(), tt.center, tt.radiusKm, catalog.Filter{}, 10, 0)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRadiusSearch_CatalogError(t *testing.T) {
	e := NewEngine(&recordingCatalog{err: errors.New("catalog down")})

	_, err := e.RadiusSearch(context.Background(), center, 1, catalog.Filter{}, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog down")
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBoundsSearch(t *testing.T) {
	e := NewEngine(catalog.NewMemory(ring()))

	box := domain.NewBounds(center.Lat+0.0056, center.Lon+0.0066, center.Lat-0.0031, center.Lon-0.0041)
	hits, err := e.BoundsSearch(context.Background(), box, catalog.Filter{}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for i, h := range hits {
		assert.True(t, box.Contains(h.Store.Position()))
		assert.Nil(t, h.DistanceKm)
		if i > 0 {
			assert.Less(t, hits[i-1].Store.ID, h.Store.ID, "catalog order, not distance")
		}
	}

	limited, err := e.BoundsSearch(context.Background(), box, catalog.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPage(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	assert.Equal(t, []int{1, 2}, Page(items, 1, 2))
	assert.Equal(t, []int{3, 4}, Page(items, 3, 10))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, Page(items, 0, 0))
	assert.Equal(t, []int{}, Page(items, 5, 2))
	assert.Equal(t, []int{0}, Page(items, -3, 1))
}
