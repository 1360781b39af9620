package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "auth:revoked:"

// RevocationStore remembers revoked access tokens until they would have
// expired anyway.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a new RevocationStore.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks tokenID as revoked for ttl. A non-positive ttl is a no-op:
// the token has already expired.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
