package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "gather_cache:"
	// DefaultCacheTTL is used when no TTL is configured
	DefaultCacheTTL = 5 * time.Minute
	// MinCacheTTL is 30 seconds
	MinCacheTTL = 30 * time.Second
	// MaxCacheTTL is 1 hour
	MaxCacheTTL = time.Hour
)

// CacheService stores JSON values in Redis with a clamped TTL.
type CacheService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCacheService(rdb *redis.Client, ttl time.Duration) *CacheService {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheService{rdb: rdb, ttl: clampTTL(ttl)}
}

// Get retrieves a value from cache. A miss is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.rdb.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL (clamped)
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, CacheKeyPrefix+key, jsonData, clampTTL(ttl)).Err()
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, CacheKeyPrefix+key).Err()
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}
