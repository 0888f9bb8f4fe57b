package atlas

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meridian-eo/atlas/internal/constants"
)

// Static errors for cache lookups.
var (
	ErrCacheKeyNotFound = errors.New("key not found in cache")
	ErrCacheEntryExpired = errors.New("cache entry expired")
	ErrCacheValueTooLarge = errors.New("cache value exceeds maximum size")
)

// CacheEntry is a single cached response body.
type CacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
	ETag      string
}

// Cache is the backend interface for response caching.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheOptions are common options applied to any backend.
type CacheOptions struct {
	// DefaultTTL applies when a Set does not specify one.
	DefaultTTL time.Duration
	// MaxValueSize rejects oversized entries. Zero uses the default.
	MaxValueSize int
}

// DefaultCacheOptions returns the default common options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL:   constants.DefaultCacheTTL,
		MaxValueSize: constants.MaxCacheValueSize,
	}
}

// MemoryCache is a bounded in-memory cache. When full, the entry expiring
// soonest is evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}
}

// Get retrieves an entry, removing it if expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores an entry, evicting the soonest-expiring entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[key] = entry

	return nil
}

func (c *MemoryCache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)

	for key, entry := range c.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has checks whether a live entry exists.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]

	return ok && time.Now().Before(entry.ExpiresAt)
}

// StartCleanup evicts expired entries every interval on a background
// goroutine until Close is called. A non-positive interval starts nothing.
func (c *MemoryCache) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Cleanup()
			case <-c.stop:
				return
			}
		}
	}()
}

// Close stops the background cleanup sweep. Safe to call on a cache that
// never started one, and safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })

	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns the hit ratio, or zero when no lookups happened.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CachingPolicy decides which responses are cacheable.
type CachingPolicy struct {
	CacheGET     bool
	CachePOST    bool
	CacheErrors  bool
	IncludePaths []string
	ExcludePaths []string
	TTL          time.Duration
}

// DefaultCachingPolicy caches successful GETs of metadata endpoints. Order
// and search state changes too often to cache.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET: true,
		ExcludePaths: []string{
			"/v1/orders",
			"/v1/searches",
		},
		TTL: constants.DefaultCacheTTL,
	}
}

// ShouldCache reports whether a response for method/path/status is cacheable
// under this policy.
func (p *CachingPolicy) ShouldCache(method, path string, statusCode int) bool {
	switch method {
	case http.MethodGet:
		if !p.CacheGET {
			return false
		}
	case http.MethodPost:
		if !p.CachePOST {
			return false
		}
	default:
		return false
	}

	if !p.CacheErrors && (statusCode < 200 || statusCode >= 300) {
		return false
	}

	if len(p.IncludePaths) > 0 {
		for _, include := range p.IncludePaths {
			if strings.HasPrefix(path, include) {
				return true
			}
		}

		return false
	}

	for _, exclude := range p.ExcludePaths {
		if strings.HasPrefix(path, exclude) {
			return false
		}
	}

	return true
}

// CacheManager wraps a backend with key construction, TTLs, and stats.
type CacheManager struct {
	cache  Cache
	policy *CachingPolicy

	mu    sync.Mutex
	stats CacheStats
}

// NewCacheManager creates a manager over the given backend. A nil policy
// selects DefaultCachingPolicy.
func NewCacheManager(cache Cache, policy *CachingPolicy) *CacheManager {
	if policy == nil {
		policy = DefaultCachingPolicy()
	}

	return &CacheManager{cache: cache, policy: policy}
}

// Policy returns the manager's caching policy.
func (m *CacheManager) Policy() *CachingPolicy {
	return m.policy
}

// GetCacheKey builds a stable cache key from the request shape.
func (m *CacheManager) GetCacheKey(method, path string, params map[string]string) string {
	if len(params) == 0 {
		return method + ":" + path
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var builder strings.Builder

	builder.WriteString(method)
	builder.WriteString(":")
	builder.WriteString(path)
	builder.WriteString(":")

	for i, key := range keys {
		if i > 0 {
			builder.WriteString("&")
		}

		builder.WriteString(key)
		builder.WriteString("=")
		builder.WriteString(params[key])
	}

	return builder.String()
}

// Get retrieves cached data, recording a hit or miss.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	if m.cache == nil {
		return nil, ErrCacheKeyNotFound
	}

	entry, err := m.cache.Get(ctx, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.stats.Misses++

		return nil, err
	}

	m.stats.Hits++

	return entry.Data, nil
}

// Set stores data under key for ttl.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.SetWithETag(ctx, key, data, "", ttl)
}

// SetWithETag stores data along with its ETag for ttl.
func (m *CacheManager) SetWithETag(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) error {
	if m.cache == nil {
		return nil
	}

	if len(data) > constants.MaxCacheValueSize {
		return ErrCacheValueTooLarge
	}

	if ttl <= 0 {
		ttl = m.policy.TTL
	}

	entry := &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		ETag:      etag,
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.stats.Sets++
	m.mu.Unlock()

	return nil
}

// GetStats returns a snapshot of the manager's counters.
func (m *CacheManager) GetStats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}
