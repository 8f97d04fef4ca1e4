package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedAccount struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*ViewCache[cachedAccount], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache[cachedAccount](client, "account:ref:", ttl, nil), mr
}

func TestViewCache_SetGet(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "0100000001")
	assert.False(t, ok)

	cache.Set(ctx, "0100000001", &cachedAccount{ID: "acc-1", AccountNumber: "0100000001"})
	assert.True(t, mr.Exists("account:ref:0100000001"))
	assert.Equal(t, time.Duration(0), mr.TTL("account:ref:0100000001"))

	got, ok := cache.Get(ctx, "0100000001")
	require.True(t, ok)
	assert.Equal(t, "acc-1", got.ID)
}

func TestViewCache_TTL(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	cache.Set(context.Background(), "k", &cachedAccount{ID: "acc-1"})

	assert.Equal(t, time.Minute, mr.TTL("account:ref:k"))
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestViewCache_CorruptEntryIsAMiss(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	require.NoError(t, mr.Set("account:ref:bad", "{not json"))

	_, ok := cache.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestViewCache_GetOrLoad(t *testing.T) {
	cache, _ := newTestCache(t, 0)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (*cachedAccount, error) {
		calls++
		return &cachedAccount{ID: "acc-9", AccountNumber: "0100000009"}, nil
	}

	first, err := cache.GetOrLoad(ctx, "0100000009", load)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(ctx, "0100000009", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	_, err = cache.GetOrLoad(ctx, "missing", func(context.Context) (*cachedAccount, error) {
		return nil, errors.New("not found")
	})
	assert.Error(t, err)
}

func TestViewCache_UnavailableRedisFallsThrough(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	mr.Close()

	v, err := cache.GetOrLoad(context.Background(), "k", func(context.Context) (*cachedAccount, error) {
		return &cachedAccount{ID: "from-db"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-db", v.ID)
}
