package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

func newRedisLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "ratelimit:receipts", limit, 24*time.Hour)
	l.now = func() time.Time { return day }
	return l, mr
}

func TestRedisLimiter_Allow(t *testing.T) {
	t.Parallel()

	l, mr := newRedisLimiter(t, 2)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "h1"))
	require.NoError(t, l.Allow(ctx, "h1"))
	assert.ErrorIs(t, l.Allow(ctx, "h1"), ErrLimitExceeded)
	assert.NoError(t, l.Allow(ctx, "h2"), "keys are counted separately")

	key := l.counterKey("h1", windowStart(day, 24*time.Hour))
	assert.True(t, mr.Exists(key))
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestRedisLimiter_NewWindowResets(t *testing.T) {
	t.Parallel()

	l, _ := newRedisLimiter(t, 1)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "h1"))
	require.ErrorIs(t, l.Allow(ctx, "h1"), ErrLimitExceeded)

	l.now = func() time.Time { return day.Add(9 * time.Hour) }
	assert.NoError(t, l.Allow(ctx, "h1"))
}

func TestRedisLimiter_Disabled(t *testing.T) {
	t.Parallel()

	l, mr := newRedisLimiter(t, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow(context.Background(), "h1"))
	}
	assert.Empty(t, mr.Keys())
}

func TestRedisLimiter_RedisDown(t *testing.T) {
	t.Parallel()

	l, mr := newRedisLimiter(t, 1)
	mr.Close()

	err := l.Allow(context.Background(), "h1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLimitExceeded)
}

func TestMemoryLimiter_Allow(t *testing.T) {
	t.Parallel()

	now := day
	l := NewMemoryLimiter(2, 24*time.Hour)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "h1"))
	require.NoError(t, l.Allow(ctx, "h1"))
	assert.ErrorIs(t, l.Allow(ctx, "h1"), ErrLimitExceeded)
	assert.NoError(t, l.Allow(ctx, "h2"))

	now = day.Add(24 * time.Hour)
	assert.NoError(t, l.Allow(ctx, "h1"))
	assert.Len(t, l.counters, 1, "counters of past windows are evicted")
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	got := windowStart(day, 24*time.Hour)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), got)
}
