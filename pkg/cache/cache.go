package cache

import (
	"context"
	"time"
)

// Cache is a read-through cache for hot lookups. Implementations must
// treat a miss as (false, nil), not an error.
type Cache interface {
	// Get unmarshals the cached value into dest and reports whether the
	// key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Nop returns a Cache that always misses. Used in tests and when the
// cache backend is disabled.
func Nop() Cache { return nopCache{} }

type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (nopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (nopCache) Delete(ctx context.Context, keys ...string) error { return nil }

func (nopCache) Ping(ctx context.Context) error { return nil }
