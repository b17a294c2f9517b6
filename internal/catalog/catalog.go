// Package catalog provides read access to the store catalog. The locator
// never writes stores; Upsert exists for seeding.
package catalog

import (
	"context"
	"strings"

	"github.com/couchcryptid/store-locator/internal/domain"
)

// Filter narrows catalog queries. Zero values match everything.
type Filter struct {
	// BrandAliases matches stores whose brand equals any alias, ignoring case.
	BrandAliases []string
	// District matches the store district exactly, ignoring case.
	District string
}

// ForBrand builds a filter for a brand key and district. An unknown or
// empty brand key applies no brand restriction.
func ForBrand(brandKey, district string) Filter {
	f := Filter{District: strings.TrimSpace(district)}
	if brandKey != "" {
		f.BrandAliases = append([]string{brandKey}, domain.Aliases(brandKey)...)
	}
	return f
}

func (f Filter) matches(s domain.Store) bool {
	if f.District != "" && !strings.EqualFold(strings.TrimSpace(s.District), f.District) {
		return false
	}
	if len(f.BrandAliases) == 0 {
		return true
	}
	for _, a := range f.BrandAliases {
		if strings.EqualFold(s.Brand, a) {
			return true
		}
	}
	return false
}

// Catalog is the store query interface consumed by the spatial engine and
// the locator.
type Catalog interface {
	// FindInBox returns stores inside box ordered by id. limit <= 0 means no limit.
	FindInBox(ctx context.Context, box domain.BoundingBox, f Filter, limit int) ([]domain.Store, error)
	// Search returns stores whose name or address contains text, ignoring case.
	Search(ctx context.Context, text string, f Filter, limit int) ([]domain.Store, error)
	// Districts returns the sorted distinct non-empty districts.
	Districts(ctx context.Context, f Filter) ([]string, error)
	// Ping reports whether the catalog is reachable.
	Ping(ctx context.Context) error
}
