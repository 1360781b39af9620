package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

// DriverCacheTTL bounds how stale a cached profile read may be.
const DriverCacheTTL = 30 * time.Second

const driverCachePrefix = "cache:driver:account:"

// DriverCache caches driver profiles in Redis, keyed by account ID. Only
// the encrypted national ID is ever cached.
type DriverCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDriverCache creates a new DriverCache.
func NewDriverCache(client *redis.Client) *DriverCache {
	return &DriverCache{client: client, ttl: DriverCacheTTL}
}

// Get retrieves a driver profile from cache. A miss returns nil, nil.
func (c *DriverCache) Get(ctx context.Context, accountID string) (*domain.Driver, error) {
	data, err := c.client.Get(ctx, driverCachePrefix+accountID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var driver domain.Driver
	if err := json.Unmarshal(data, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// Set stores a driver profile in cache.
func (c *DriverCache) Set(ctx context.Context, driver *domain.Driver) error {
	data, err := json.Marshal(driver)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, driverCachePrefix+driver.AccountID, data, c.ttl).Err()
}

// Invalidate removes a driver profile from cache.
func (c *DriverCache) Invalidate(ctx context.Context, accountID string) error {
	return c.client.Del(ctx, driverCachePrefix+accountID).Err()
}
