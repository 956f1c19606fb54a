package redis

import (
	"context"
	"testing"

	"tix-voucher/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestRedisGetSetClear(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	r := NewRedis(client, "tenant:", nil)

	_, ok, err := r.Get(ctx, storage.TicketsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, storage.TicketsKey, `{"tickets":[]}`))

	// stored under the prefixed key with no TTL
	raw, err := mr.Get("tenant:" + storage.TicketsKey)
	require.NoError(t, err)
	assert.Equal(t, `{"tickets":[]}`, raw)
	assert.Zero(t, mr.TTL("tenant:"+storage.TicketsKey))

	value, ok, err := r.Get(ctx, storage.TicketsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"tickets":[]}`, value)

	require.NoError(t, r.Clear(ctx, storage.TicketsKey))
	assert.False(t, mr.Exists("tenant:"+storage.TicketsKey))
}

func TestRedisSurfacesConnectionErrors(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, "", nil)

	mr.Close()

	_, _, err := r.Get(context.Background(), storage.SettingsKey)
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), storage.SettingsKey, "{}"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), addr, 0)
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = Connect(context.Background(), addr, 0)
	assert.Error(t, err)
}
