package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/store-locator/internal/domain"
)

// Memory is an in-process Catalog over a fixed store list. It backs tests
// and small fixtures.
type Memory struct {
	mu     sync.RWMutex
	stores []domain.Store
}

// NewMemory returns a catalog holding a copy of stores, ordered by id.
func NewMemory(stores []domain.Store) *Memory {
	m := &Memory{stores: append([]domain.Store(nil), stores...)}
	sort.SliceStable(m.stores, func(i, j int) bool { return m.stores[i].ID < m.stores[j].ID })
	return m
}

func (m *Memory) FindInBox(_ context.Context, box domain.BoundingBox, f Filter, limit int) ([]domain.Store, error) {
	return m.collect(limit, func(s domain.Store) bool {
		return box.Contains(s.Position()) && f.matches(s)
	}), nil
}

func (m *Memory) Search(_ context.Context, text string, f Filter, limit int) ([]domain.Store, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	return m.collect(limit, func(s domain.Store) bool {
		if !f.matches(s) {
			return false
		}
		return needle == "" ||
			strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.Address), needle)
	}), nil
}

func (m *Memory) Districts(_ context.Context, f Filter) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[string]struct{})
	for _, s := range m.stores {
		d := strings.TrimSpace(s.District)
		if d != "" && f.matches(s) {
			set[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) collect(limit int, keep func(domain.Store) bool) []domain.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Store{}
	for _, s := range m.stores {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
