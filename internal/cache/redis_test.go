package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func sampleCart() *domain.CartState {
	offer := 15.0
	return &domain.CartState{
		Lines: []domain.CartLine{
			{Product: domain.Product{ID: "1", Name: "Coffee Mug", Price: 10}, Quantity: 2},
			{Product: domain.Product{ID: "2", Name: "Backpack", Price: 20, OfferPrice: &offer}, Quantity: 1},
		},
		Total: 35,
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	cartJSON, _ := json.Marshal(sampleCart())
	require.NoError(t, mr.Set(cacheKey("user123"), string(cartJSON)))

	result, err := cache.Get(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, "1", result.Lines[0].Product.ID)
	assert.Equal(t, 15.0, *result.Lines[1].Product.OfferPrice)
	assert.Equal(t, 35.0, result.Total)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	jsonCart, err := json.Marshal(sampleCart())
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey("guest:dev1"), string(jsonCart[0:10])))

	_, cacheError := cache.Get(context.Background(), "guest:dev1")
	require.ErrorContains(t, cacheError, "unmarshal cart failed")
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := cache.Get(context.Background(), "user123")
	require.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Set(context.Background(), "user456", sampleCart())
	require.NoError(t, err)

	stored, e2 := mr.Get(cacheKey("user456"))
	require.NoError(t, e2)
	assert.NotEmpty(t, stored)

	var storedCart domain.CartState
	require.NoError(t, json.Unmarshal([]byte(stored), &storedCart))
	assert.Len(t, storedCart.Lines, 2)
	assert.Equal(t, 35.0, storedCart.Total)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Set(context.Background(), "user789", &domain.CartState{Lines: []domain.CartLine{}})
	require.NoError(t, err)

	ttl := mr.TTL(cacheKey("user789"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute, "TTL should be at least base TTL")
	assert.LessOrEqual(t, ttl, 20*time.Minute, "TTL should be base + max jitter")
}

func TestDelete_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cartJSON, _ := json.Marshal(sampleCart())
	require.NoError(t, mr.Set(cacheKey("user999"), string(cartJSON)))
	assert.True(t, mr.Exists(cacheKey("user999")))

	require.NoError(t, cache.Delete(context.Background(), "user999"))

	assert.False(t, mr.Exists(cacheKey("user999")))
}

func TestDelete_NonExistentKey(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	// Deleting non-existent key should not error
	assert.NoError(t, cache.Delete(context.Background(), "nonexistent"))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:test123", cacheKey("test123"))
	assert.Equal(t, "cart:guest:d-1", cacheKey("guest:d-1"))
}
