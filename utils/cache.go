package utils

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultFeedCachePrefix namespaces every key written by the response cache.
	DefaultFeedCachePrefix = "cache:feed:"
	defaultCacheTTL        = 20 * time.Second
)

// ResponseCache memoizes rendered responses for a bounded time window.
// Readers observe either the previous or the newly set value, never a partial one.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidateAll(ctx context.Context)
}

// RedisCache stores responses in Redis under a key prefix.
type RedisCache struct {
	rc     *redis.Client
	prefix string
}

// NewRedisCache returns a Redis backed cache. An empty prefix falls back to DefaultFeedCachePrefix.
func NewRedisCache(rc *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultFeedCachePrefix
	}
	return &RedisCache{rc: rc, prefix: prefix}
}

// Get returns cached bytes for a key from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Warnf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// Set stores bytes; a non-positive ttl uses the default window.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidateAll deletes every key under the prefix using SCAN.
func (c *RedisCache) InvalidateAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for {
		keys, cur, err := c.rc.Scan(ctx, cursor, c.prefix+"*", 1000).Result()
		if err != nil {
			Sugar.Warnf("cache invalidate scan failed prefix=%s err=%v", c.prefix, err)
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				Sugar.Warnf("cache invalidate delete failed prefix=%s err=%v", c.prefix, err)
			}
		}
		if cursor == 0 {
			return
		}
	}
}

// memoryCacheCapacity bounds the fallback cache; the least recently used page is evicted first.
const memoryCacheCapacity = 1024

// MemoryCache is the in-process fallback used when Redis is not configured.
// Entries are immutable copies, so a reader never sees a half-written page.
type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemoryCache returns an empty in-process cache and starts its expiry loop.
func NewMemoryCache() *MemoryCache {
	items := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](defaultCacheTTL),
		ttlcache.WithCapacity[string, []byte](memoryCacheCapacity),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &MemoryCache{items: items}
}

// Get returns a copy of the cached value when it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false
	}
	value := item.Value()
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.items.Set(key, stored, ttl)
}

// InvalidateAll drops every entry.
func (c *MemoryCache) InvalidateAll(_ context.Context) {
	c.items.DeleteAll()
}

// Close stops the expiry loop.
func (c *MemoryCache) Close(context.Context) error {
	c.items.Stop()
	return nil
}

// NewResponseCache picks Redis when a client is available and memory otherwise.
func NewResponseCache(rc *redis.Client) ResponseCache {
	if rc == nil {
		return NewMemoryCache()
	}
	return NewRedisCache(rc, DefaultFeedCachePrefix)
}
