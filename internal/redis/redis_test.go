package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDriverCache_RoundTripAndExpiry(t *testing.T) {
	mr, client := setupMiniredis(t)
	cache := NewDriverCache(client)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	driver := &domain.Driver{
		ID:           "driver-1",
		AccountID:    "acc-1",
		PersonalInfo: domain.PersonalInfo{City: "Pune", NationalID: "aa:bb"},
		Documents:    domain.Documents{LicenseExpiry: &expiry},
		VehicleInfo:  domain.VehicleInfo{VehicleType: domain.VehicleClassBike},
		Status:       domain.DriverStatus{IsOnline: true, IsVerified: true, ProfileCompletionPercentage: 75},
	}
	require.NoError(t, cache.Set(ctx, driver))

	got, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "driver-1", got.ID)
	assert.Equal(t, domain.VehicleClassBike, got.VehicleInfo.VehicleType)
	assert.True(t, got.Documents.LicenseExpiry.Equal(expiry))

	mr.FastForward(DriverCacheTTL + time.Second)
	expired, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestDriverCache_Invalidate(t *testing.T) {
	_, client := setupMiniredis(t)
	cache := NewDriverCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Driver{ID: "driver-1", AccountID: "acc-1"}))
	require.NoError(t, cache.Invalidate(ctx, "acc-1"))

	got, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRevocationStore_EntriesExpire(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_ExpiredTokenIsNoop(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRevocationStore(client)

	require.NoError(t, store.Revoke(context.Background(), "tok-1", 0))
	assert.False(t, mr.Exists(revokedTokenPrefix+"tok-1"))
}
