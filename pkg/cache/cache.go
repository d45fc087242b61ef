// Package cache provides the read-through cache the resource clients use.
//
// Values are JSON-encoded so every driver stores the same bytes. The driver is
// chosen by CACHE_DRIVER: "memory" (default), "redis" or "none".
//
//	c, err := cache.Open(config.CacheDriver())
//	var cat models.Category
//	if !c.Get(ctx, "category:42", &cat) {
//	    cat = fetch()
//	    _ = c.Set(ctx, "category:42", cat, config.CacheTTL())
//	}
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/metrics"
)

// Store is a key/value cache with per-entry TTL.
type Store interface {
	// Get unmarshals the value under key into dest. It returns false on a
	// miss, an expired entry or a decode error.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr atomically increments the integer under key, starting from 0.
	Incr(ctx context.Context, key string) (int64, error)
	Driver() string
}

// Open returns the store for driver. Redis is dialled with the configured
// address and must answer a ping.
func Open(driver string) (Store, error) {
	switch driver {
	case "redis":
		return Connect(config.RedisAddr(), config.RedisPassword())
	case "none":
		return Null{}, nil
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", driver)
	}
}

// Null caches nothing.
type Null struct{}

func (Null) Get(context.Context, string, any) bool { return false }
func (Null) Set(context.Context, string, any, time.Duration) error { return nil }
func (Null) Del(context.Context, ...string) error { return nil }
func (Null) Incr(context.Context, string) (int64, error) { return 0, nil }
func (Null) Driver() string { return "none" }

// Remember returns the cached value under key or calls fn, caches its result
// and returns it.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var v T
	if s.Get(ctx, key, &v) {
		metrics.RecordCache(s.Driver(), true)
		return v, nil
	}
	metrics.RecordCache(s.Driver(), false)

	v, err := fn()
	if err != nil {
		return v, err
	}
	_ = s.Set(ctx, key, v, ttl)
	return v, nil
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache: encode: %w", err)
	}
	return data, nil
}
