// Package ratelimit implements fixed-window request limiting backed by
// Redis or process memory.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts hits with INCR and sets the window TTL with EXPIRE NX
// in the same MULTI/EXEC, so all replicas share one budget and a counter
// never outlives its window. EXPIRE NX needs Redis 7.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
}

// NewRedisLimiter returns a limiter allowing limit hits per window.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window, prefix: "veritrustx:rl:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

// MemoryLimiter is the single-process fallback.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count int
	reset time.Time
}

// NewMemoryLimiter returns a limiter allowing limit hits per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.reset) {
		l.sweep(now)
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.limit, nil
}

// sweep drops expired buckets. Called with mu held.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.reset) {
			delete(l.buckets, k)
		}
	}
}
