package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coachkit/pkg/redis"
	"github.com/dmitrymomot/coachkit/pkg/session/redisstore"
)

func connect(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *redisstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := redis.DefaultConfig()
	cfg.ConnectionURL = "redis://" + mr.Addr() + "/0"
	cfg.KeyPrefix = "test:"

	store, err := redisstore.Connect(context.Background(), cfg, "local", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	mr, store := connect(t, 0)
	ctx := context.Background()

	secret, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)

	require.NoError(t, store.Save(ctx, "rt-1"))
	got, err := mr.Get("test:refresh_secret:local")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", got)

	secret, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt-1", secret)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("test:refresh_secret:local"))
}

func TestStore_TTL(t *testing.T) {
	t.Parallel()
	mr, store := connect(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "rt-1"))
	assert.Equal(t, time.Hour, mr.TTL("test:refresh_secret:local"))

	mr.FastForward(2 * time.Hour)
	secret, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)
}
