package cart

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) (*redis.Client, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	empty, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	cart := &model.Cart{}
	cart.Put(model.CartLine{ProductID: 1, VariantID: int64Ptr(10), Quantity: 2})
	cart.Put(model.CartLine{ProductID: 2, Quantity: 1})
	require.NoError(t, store.Save(ctx, "s1", cart))

	// Mutating the caller's copy must not leak into the store.
	*cart.Lines[0].VariantID = 99
	cart.Lines[1].Quantity = 50

	loaded, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, "variant_10", loaded.Lines[0].Key)
	assert.Equal(t, int64(10), *loaded.Lines[0].VariantID)
	assert.Equal(t, 1, loaded.Lines[1].Quantity)

	other, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, store.Save(ctx, "s1", &model.Cart{}))
	cleared, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())

	require.NoError(t, store.Save(ctx, "s1", loaded))
	require.NoError(t, store.Clear(ctx, "s1"))
	cleared, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	exerciseStore(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_SetsTTL(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRedisStore(client, 10*time.Minute)

	cart := &model.Cart{}
	cart.Put(model.CartLine{ProductID: 1, Quantity: 1})
	require.NoError(t, store.Save(ctx, "s1", cart))

	ttl, err := client.TTL(ctx, "cart:s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "cart:s1", "not json", 0).Err())

	_, err := NewRedisStore(client, time.Hour).Get(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode cart")
}
