package atlas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-eo/atlas/internal/constants"
)

// CacheType selects a cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps entries in process memory.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS stores entries in a NATS JetStream KV bucket so they
	// can be shared between processes.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone disables caching entirely.
	CacheTypeNone CacheType = "none"
)

// Static errors for cache construction and lookup.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig selects and configures the response cache backend.
type CacheConfig struct {
	Type CacheType

	// Memory applies when Type is CacheTypeMemory. Nil selects defaults.
	Memory *MemoryCacheConfig

	// NATS applies when Type is CacheTypeNATS, and is required then.
	NATS *NATSKVConfig

	// Options common to any backend. Nil selects DefaultCacheOptions.
	Options *CacheOptions
}

// MemoryCacheConfig configures the in-memory backend.
type MemoryCacheConfig struct {
	// MaxSize bounds the number of entries held at once.
	MaxSize int

	// CleanupInterval is how often a background sweep drops expired
	// entries. Zero disables the sweep; expired entries are then removed
	// only when a lookup touches them.
	CleanupInterval time.Duration
}

// DefaultMemoryCacheConfig returns the default in-memory backend settings.
func DefaultMemoryCacheConfig() *MemoryCacheConfig {
	return &MemoryCacheConfig{
		MaxSize:         constants.DefaultCacheSize,
		CleanupInterval: time.Minute,
	}
}

// DefaultCacheConfig returns the default configuration: a bounded in-memory
// cache with a periodic expiry sweep.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		Memory:  DefaultMemoryCacheConfig(),
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig builds the configured cache backend. Backends holding
// resources (the memory cache's sweep goroutine, the NATS connection)
// implement io.Closer; the client closes them on Close.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		return NewMemoryCacheFromConfig(config.Memory), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NewMemoryCacheFromConfig builds an in-memory cache and starts its expiry
// sweep when the config asks for one.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultMemoryCacheConfig()
	}

	cache := NewMemoryCache(config.MaxSize)
	cache.StartCleanup(config.CleanupInterval)

	return cache
}

// NoOpCache satisfies the Cache interface without storing anything. It backs
// CacheTypeNone so callers never have to branch on "caching disabled".
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get reports every key as uncached.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards the entry.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has reports false for every key.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheBuilder assembles a CacheConfig fluently.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from the in-memory defaults.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: &CacheConfig{
			Type:    CacheTypeMemory,
			Options: DefaultCacheOptions(),
		},
	}
}

// WithType sets the backend type.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig sets the in-memory backend's size bound and sweep
// interval.
func (b *CacheBuilder) WithMemoryConfig(maxSize int, cleanupInterval time.Duration) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{
		MaxSize:         maxSize,
		CleanupInterval: cleanupInterval,
	}

	return b
}

// WithNATSConfig sets the NATS KV backend configuration.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithOptions sets the common cache options.
func (b *CacheBuilder) WithOptions(options *CacheOptions) *CacheBuilder {
	b.config.Options = options

	return b
}

// Build creates the cache from the assembled configuration.
func (b *CacheBuilder) Build() (Cache, error) {
	return NewCacheFromConfig(b.config)
}

// CacheChain layers multiple backends, fastest first. Lookups stop at the
// first hit and promote the entry into the layers in front of it; writes fan
// out to every layer.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain creates a chain over the given backends in lookup order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{
		caches: caches,
	}
}

// Get retrieves an entry from the first layer that holds it.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for j := 0; j < i; j++ {
			_ = c.caches[j].Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// fanout applies op to every layer, keeping the last error.
func (c *CacheChain) fanout(op func(Cache) error) error {
	var lastErr error

	for _, cache := range c.caches {
		if err := op(cache); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Set stores an entry in every layer.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.fanout(func(cache Cache) error {
		return cache.Set(ctx, key, entry)
	})
}

// Delete removes an entry from every layer.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.fanout(func(cache Cache) error {
		return cache.Delete(ctx, key)
	})
}

// Clear empties every layer.
func (c *CacheChain) Clear(ctx context.Context) error {
	return c.fanout(func(cache Cache) error {
		return cache.Clear(ctx)
	})
}

// Has reports whether any layer holds a live entry for the key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}
