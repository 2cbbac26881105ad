package cache

import (
	"context"
	"time"
)

// Cache is the engine's caching abstraction. The rule engine depends on this
// interface rather than a concrete backend, so deployments can run Redis in
// production and in-memory caching in tests or single-node setups.
type Cache interface {
	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data with a TTL
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}

// Key prefixes for consistent cache key naming
const (
	RulesPrefix  = "cmp:rules:"
	ChecksPrefix = "cmp:check:"
)

// Common TTL values
const (
	DefaultTTL   = 1 * time.Hour
	RuleCacheTTL = 15 * time.Minute
)

// ErrCacheKeyNotFound is returned when a cache key doesn't exist
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}
