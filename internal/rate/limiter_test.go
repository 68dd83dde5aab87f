package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBlocksAfterMax(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(4), res.CurrentHits)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	res, _ := l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "k")
	assert.False(t, res.Allowed)

	time.Sleep(80 * time.Millisecond)
	res, _ = l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
}

func TestMemoryLimiterConcurrentHitsAreCounted(t *testing.T) {
	l := NewMemoryLimiter(1000, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Allow(ctx, "shared")
		}()
	}
	wg.Wait()

	res, err := l.Allow(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(51), res.CurrentHits)
}

func TestRedisLimiterWindowKey(t *testing.T) {
	l := NewRedisLimiter(nil, "", 5, time.Minute)
	now := time.Date(2026, 1, 2, 3, 4, 35, 0, time.UTC)

	key := l.windowKey("login 10.0.0.1", now)
	assert.Equal(t, "rl:login_10.0.0.1:1767323040", key)
}

func newRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l := NewRedisLimiter(rdb.NewClient(&rdb.Options{Addr: mr.Addr()}), "rl:", max, window)
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLimiterBlocksAfterMax(t *testing.T) {
	l, mr := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	res, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)

	// the first hit sets the window expiry
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	res, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(3), res.CurrentHits)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	other, err := l.Allow(ctx, "login:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	l, mr := newRedisLimiter(t, 1, time.Hour)
	ctx := context.Background()

	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	mr.FastForward(time.Hour)

	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestRedisLimiterBackendDown(t *testing.T) {
	l, mr := newRedisLimiter(t, 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
