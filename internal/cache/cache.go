// Package cache memoizes locator results in a TTL key/value store. Keys are
// derived from the semantic request parameters, so equivalent requests share
// an entry regardless of argument order or float formatting noise.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/store-locator/internal/observability"
)

// Store is a byte-oriented key/value store with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Params are the request parameters that identify a cached result.
type Params map[string]any

// Key returns prefix + ":" + a hash of the canonical JSON form of params.
// Float coordinates are rounded to 6 decimals before hashing.
func Key(prefix string, params Params) string {
	canon := make(map[string]any, len(params))
	for k, v := range params {
		canon[k] = canonical(v)
	}
	// encoding/json writes map keys in sorted order.
	b, err := json.Marshal(canon)
	if err != nil {
		b = []byte(err.Error())
	}
	sum := sha256.Sum256(b)
	return prefix + ":" + hex.EncodeToString(sum[:16])
}

func canonical(v any) any {
	switch x := v.(type) {
	case float64:
		return round6(x)
	case float32:
		return round6(float64(x))
	case []float64:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = round6(f)
		}
		return out
	default:
		return v
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Cache wraps a Store with JSON encoding, logging, and lookup metrics.
// A nil *Cache is valid and disables caching.
type Cache struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Cache backed by store.
func New(store Store, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{store: store, logger: logger, metrics: metrics}
}

// Compute produces a fresh value. The bool reports whether the value may be
// cached; degraded results that should be retried return false.
type Compute[T any] func(ctx context.Context) (T, bool, error)

// Fetch returns the cached value for (prefix, params) or computes, stores,
// and returns it. A hit decodes exactly the bytes a miss stored, so both
// paths serialize identically. Cache failures fall through to compute.
func Fetch[T any](ctx context.Context, c *Cache, prefix string, params Params, ttl time.Duration, compute Compute[T]) (T, error) {
	if c == nil || c.store == nil {
		v, _, err := compute(ctx)
		return v, err
	}

	key := Key(prefix, params)
	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", "prefix", prefix, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.observe(prefix, "hit")
			c.logger.Debug("cache hit", "prefix", prefix, "key", key)
			return v, nil
		}
		c.logger.Warn("cache entry undecodable, recomputing", "prefix", prefix, "key", key)
	}
	c.observe(prefix, "miss")

	v, cacheable, err := compute(ctx)
	if err != nil || !cacheable {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "prefix", prefix, "error", err)
		return v, nil
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache write failed", "prefix", prefix, "error", err)
	}
	return v, nil
}

func (c *Cache) observe(prefix, result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(prefix, result).Inc()
	}
}
