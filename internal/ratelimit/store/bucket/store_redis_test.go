package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisBucketStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedisAllow(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	for i := range 3 {
		res, err := store.Allow(ctx, "ip:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-i-1, res.Remaining)
	}

	res, err := store.Allow(ctx, "ip:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 60, res.RetryAfter)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"ip:1.2.3.4"))

	mr.FastForward(time.Minute)
	res, err = store.Allow(ctx, "ip:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisRearmsMissingTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(keyPrefix+"ip:stuck", "7"))

	res, err := store.Allow(context.Background(), "ip:stuck", 100, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"ip:stuck"))
}

func TestRedisReset(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	_, err := store.Allow(ctx, "ip:r", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx, "ip:r"))
	assert.False(t, mr.Exists(keyPrefix+"ip:r"))
}

func TestRedisUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Allow(context.Background(), "ip:x", 1, time.Minute)
	assert.Error(t, err)
}
