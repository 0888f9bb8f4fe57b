package atlas

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
type NATSKVConfig struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222").
	URL string

	// Bucket is the KV bucket name. Created if it does not exist.
	Bucket string

	// TTL is the bucket-level entry expiry. Zero disables bucket expiry and
	// entries rely on their stored ExpiresAt alone.
	TTL time.Duration

	// Credentials is an optional path to a NATS credentials file.
	Credentials string

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration
}

// NATSKVCache stores cache entries in a NATS JetStream key-value bucket so
// multiple client processes can share one response cache.
type NATSKVCache struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKVCache connects to NATS and binds the configured bucket, creating
// it when missing.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("atlas-cache")}

	if config.Credentials != "" {
		opts = append(opts, nats.UserCredentials(config.Credentials))
	}

	if config.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(config.ConnectTimeout))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = "atlas-cache"
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %q: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv}, nil
}

// encodeKey maps arbitrary cache keys onto the KV key alphabet.
func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Get retrieves an entry, deleting it if expired.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(encodeKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading cache key: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(kvEntry.Value(), &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = c.kv.Delete(encodeKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if _, err := c.kv.Put(encodeKey(key), data); err != nil {
		return fmt.Errorf("writing cache key: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(encodeKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting cache key: %w", err)
	}

	return nil
}

// Clear removes every entry in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing cache keys: %w", err)
	}

	for _, key := range keys {
		if err := c.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("deleting cache key: %w", err)
		}
	}

	return nil
}

// Has checks whether a live entry exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	entry, err := c.Get(ctx, key)

	return err == nil && entry != nil
}

// Close releases the NATS connection.
func (c *NATSKVCache) Close() error {
	c.conn.Close()

	return nil
}
