package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// backends returns every Cache implementation under test
func backends(t *testing.T) map[string]Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCache := NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())

	return map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := payload{Name: "velocity", Count: 3}

			require.NoError(t, c.SetJSON(ctx, RulesPrefix+"org-1", in, DefaultTTL))

			var out payload
			require.NoError(t, c.GetJSON(ctx, RulesPrefix+"org-1", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCache_MissingKey(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var out payload
			err := c.GetJSON(context.Background(), "absent", &out)
			assert.ErrorAs(t, err, &ErrCacheKeyNotFound{})
		})
	}
}

func TestCache_Delete(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.SetJSON(ctx, "k", payload{}, DefaultTTL))
			require.NoError(t, c.Delete(ctx, "k"))

			var out payload
			assert.ErrorAs(t, c.GetJSON(ctx, "k", &out), &ErrCacheKeyNotFound{})
		})
	}
}

func TestCache_DeleteMissingKeyIsNoop(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, c.Delete(context.Background(), "never-set"))
		})
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "short"}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var out payload
	assert.ErrorAs(t, c.GetJSON(ctx, "k", &out), &ErrCacheKeyNotFound{})
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "short"}, time.Second))
	mr.FastForward(2 * time.Second)

	var out payload
	assert.ErrorAs(t, c.GetJSON(ctx, "k", &out), &ErrCacheKeyNotFound{})
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "pinned"}, 0))

	var out payload
	require.NoError(t, c.GetJSON(ctx, "k", &out))
	assert.Equal(t, "pinned", out.Name)
}
