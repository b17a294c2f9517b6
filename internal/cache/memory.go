package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore is a thread-safe LRU store with per-entry expiry. Expired
// entries are dropped lazily on read or when they reach the LRU tail.
type MemoryStore struct {
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
	prev      *entry
	next      *entry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry, for tests.
func WithClock(c clockwork.Clock) MemoryOption {
	return func(s *MemoryStore) { s.clock = c }
}

// NewMemoryStore creates a store holding at most maxEntries values.
func NewMemoryStore(maxEntries int, opts ...MemoryOption) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	s := &MemoryStore{
		maxEntries: maxEntries,
		clock:      clockwork.NewRealClock(),
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.expired(e) {
		s.drop(e)
		return nil, false, nil
	}
	s.moveToFront(e)
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl)
	}

	if e, ok := s.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		s.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	s.entries[key] = e
	s.addToFront(e)

	for len(s.entries) > s.maxEntries {
		s.drop(s.tail)
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet dropped.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt)
}

func (s *MemoryStore) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.unlink(e)
	s.addToFront(e)
}

func (s *MemoryStore) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *MemoryStore) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *MemoryStore) drop(e *entry) {
	delete(s.entries, e.key)
	s.unlink(e)
}
