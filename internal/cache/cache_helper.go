package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig pairs a key prefix with the TTL for that class of data.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Class rows and class listings. Kept short: the roster changes with every
	// registration and the read path must not serve a stale capacity picture
	// for long.
	ClassCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "class:",
	}

	// User profiles and the admin-email list
	UserCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "user:",
	}

	// Existence probes for class-id generation outside transactions
	ExistsCacheConfig = CacheConfig{
		TTL:    time.Minute,
		Prefix: "exists:",
	}
)

// CacheHelper wraps a Redis client with a key prefix and JSON encoding. A nil
// client degrades every operation: writes become no-ops and reads report
// ErrCacheNotAvailable, so the portal runs without Redis.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{client: client, prefix: prefix}
}

func (c *CacheHelper) key(k string) string {
	return c.prefix + k
}

// Get unmarshals the cached value for key into dest.
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set stores value under key with the given TTL.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes the given keys.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Exists reports whether key is present.
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	count, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}
	return count > 0, nil
}

// InvalidatePattern deletes every key matching pattern. SCAN, not KEYS, so a
// large keyspace does not stall Redis.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	var (
		cursor uint64
		stale  []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, c.key(pattern), 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		stale = append(stale, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	if len(stale) == 0 {
		return nil
	}
	return c.client.Del(ctx, stale...).Err()
}

// CacheOrExecute is the cache-aside read path: serve from cache when possible,
// otherwise run fetch and populate the cache in the background. The caller
// never waits on the cache write.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheNotFound && err != ErrCacheNotAvailable {
		slog.Info("cache read failed, falling through to fetch", "error", err, "key", key)
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	go func(parent context.Context) {
		writeCtx, cancel := context.WithTimeout(parent, 5*time.Second)
		defer cancel()
		if err := c.Set(writeCtx, key, value, ttl); err != nil {
			slog.Error("cache write failed", "error", err, "key", key)
		}
	}(context.WithoutCancel(ctx))

	// Round-trip through JSON so dest gets the same shape a cache hit yields.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// CacheManager groups the per-entity helpers the repositories share.
type CacheManager struct {
	Class  *CacheHelper
	User   *CacheHelper
	Exists *CacheHelper

	client *redis.Client
}

func NewCacheManager(client *redis.Client) *CacheManager {
	cm := &CacheManager{client: client}
	if client == nil {
		cm.Class = NewCacheHelper(nil, "")
		cm.User = NewCacheHelper(nil, "")
		cm.Exists = NewCacheHelper(nil, "")
		return cm
	}

	cm.Class = NewCacheHelper(client, ClassCacheConfig.Prefix)
	cm.User = NewCacheHelper(client, UserCacheConfig.Prefix)
	cm.Exists = NewCacheHelper(client, ExistsCacheConfig.Prefix)
	return cm
}

// HealthCheck pings Redis.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if _, err := cm.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
