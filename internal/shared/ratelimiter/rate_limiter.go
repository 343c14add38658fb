// Package ratelimiter counts operations per key in fixed time windows.
package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimitExceeded is returned by Allow once a key has used its quota for
// the current window.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter admits at most a fixed number of operations per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// windowStart truncates now to the window it falls in. Windows are aligned
// to the Unix epoch, so a 24h window resets at midnight UTC.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.UTC().Truncate(window)
}

// RedisLimiter shares counters between server instances.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a RedisLimiter. A non-positive limit disables it.
func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) counterKey(key string, start time.Time) string {
	return l.prefix + ":" + key + ":" + strconv.FormatInt(start.Unix(), 10)
}

// Allow increments the counter for key. The operation that would exceed the
// limit is rejected and still counted.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	if l.limit <= 0 {
		return nil
	}
	start := windowStart(l.now(), l.window)
	k := l.counterKey(key, start)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireAt(ctx, k, start.Add(l.window))
		return nil
	})
	if err != nil {
		return fmt.Errorf("rate limit counter: %w", err)
	}
	if incr.Val() > int64(l.limit) {
		slog.Info("rate limit hit", "key", key, "limit", l.limit, "window", l.window)
		return ErrLimitExceeded
	}
	return nil
}

// MemoryLimiter keeps counters in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	counters map[string]counter
}

type counter struct {
	start time.Time
	count int
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a MemoryLimiter. A non-positive limit disables it.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string]counter),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	if l.limit <= 0 {
		return nil
	}
	start := windowStart(l.now(), l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.counters[key]
	if !c.start.Equal(start) {
		c = counter{start: start}
		l.evictBefore(start)
	}
	c.count++
	l.counters[key] = c
	if c.count > l.limit {
		slog.Info("rate limit hit", "key", key, "limit", l.limit, "window", l.window)
		return ErrLimitExceeded
	}
	return nil
}

// evictBefore drops counters of past windows. Callers hold l.mu.
func (l *MemoryLimiter) evictBefore(start time.Time) {
	for k, c := range l.counters {
		if c.start.Before(start) {
			delete(l.counters, k)
		}
	}
}
