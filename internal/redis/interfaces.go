package redis

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// DriverCacheInterface defines driver profile caching.
type DriverCacheInterface interface {
	Get(ctx context.Context, accountID string) (*domain.Driver, error)
	Set(ctx context.Context, driver *domain.Driver) error
	Invalidate(ctx context.Context, accountID string) error
}

// RevocationStoreInterface defines the token revocation list.
type RevocationStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ DriverCacheInterface     = (*DriverCache)(nil)
	_ RevocationStoreInterface = (*RevocationStore)(nil)
)
