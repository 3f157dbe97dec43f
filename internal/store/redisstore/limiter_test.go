package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowKey(t *testing.T) {
	l := NewLimiter(nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base }
	k1 := l.windowKey("chat:1.2.3.4", time.Minute)
	l.now = func() time.Time { return base.Add(59 * time.Second) }
	k2 := l.windowKey("chat:1.2.3.4", time.Minute)
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	k3 := l.windowKey("chat:1.2.3.4", time.Minute)

	assert.Equal(t, k1, k2, "same window")
	assert.NotEqual(t, k2, k3, "next window")
	assert.Contains(t, k1, "ratelimit:chat:1.2.3.4:")
}

func TestAllow_DisabledLimitSkipsRedis(t *testing.T) {
	l := NewLimiter(nil)
	ok, err := l.Allow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_RedisDownReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	_, err := NewLimiter(rdb).Allow(context.Background(), "k", 5, time.Minute)
	assert.Error(t, err)
}

// Runs against REDIS_ADDR (default 127.0.0.1:6379) and skips when nothing
// answers there.
func TestAllow_CountsWithinWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb, err := NewClient(context.Background(), Options{Addr: addr})
	if err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	defer rdb.Close()

	l := NewLimiter(rdb)
	// pinned so the four hits cannot straddle a window boundary
	now := time.Now()
	l.now = func() time.Time { return now }
	key := "test:" + uuid.NewString()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := l.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d is within the limit", i)
	}
	ok, err := l.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "request 4 exceeds the limit")

	ttl, err := rdb.TTL(ctx, l.windowKey(key, time.Minute)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "window key must expire")

	ok, err = l.Allow(ctx, "other:"+key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "buckets are independent")
}
