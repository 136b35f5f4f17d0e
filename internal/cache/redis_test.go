package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore
// backed by it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGet_Success(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	want := payload{Name: "abc", Count: 3}
	data, _ := json.Marshal(want)
	mr.Set("k1", string(data))

	var got payload
	err := store.Get(ctx, "k1", &got)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGet_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	var got payload
	err := store.Get(context.Background(), "absent", &got)

	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSet_AppliesTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	err := store.Set(ctx, "k1", payload{Name: "x"}, 10*time.Minute)
	require.NoError(t, err)

	assert.True(t, mr.Exists("k1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("k1"))
}

func TestSetNX(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// second acquisition must fail
	ok, err = store.SetNX(ctx, "k1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("k1", "v")
	require.NoError(t, store.Delete(ctx, "k1"))
	assert.False(t, mr.Exists("k1"))

	// deleting again (or nothing at all) is not an error
	assert.NoError(t, store.Delete(ctx, "k1"))
	assert.NoError(t, store.Delete(ctx))
}

func TestTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.TTL(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)

	mr.Set("forever", "v")
	d, err := store.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	require.NoError(t, store.Set(ctx, "bounded", "v", time.Minute))
	d, err = store.TTL(ctx, "bounded")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestKeys_ScansPattern(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("stock:hold:tok1:A", "1")
	mr.Set("stock:hold:tok1:B", "2")
	mr.Set("stock:hold:tok2:A", "3")

	keys, err := store.Keys(ctx, "stock:hold:tok1:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stock:hold:tok1:A", "stock:hold:tok1:B"}, keys)
}
