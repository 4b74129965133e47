package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit %d", i+1)
	}

	// Other keys have their own budget.
	ok, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = base.Add(time.Minute)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window should reset")
}

func TestMemoryLimiter_SweepsExpiredBuckets(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	l := NewMemoryLimiter(1, time.Second)
	l.now = func() time.Time { return clock }

	_, _ = l.Allow(context.Background(), "a")
	_, _ = l.Allow(context.Background(), "b")
	clock = base.Add(2 * time.Second)
	_, _ = l.Allow(context.Background(), "c")

	assert.Len(t, l.buckets, 1)
}

func TestRedisLimiter_PropagatesErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, 5, time.Minute)
	ok, err := l.Allow(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestLimiterInterface(t *testing.T) {
	var _ Limiter = (*RedisLimiter)(nil)
	var _ Limiter = (*MemoryLimiter)(nil)
}

// scriptedRedis answers pipelines in process: INCR counts per key and every
// other command succeeds. It records each command it sees.
type scriptedRedis struct {
	counts map[string]int64
	seen   [][]any
}

func (h *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *scriptedRedis) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.seen = append(h.seen, cmd.Args())
			switch c := cmd.(type) {
			case *redis.IntCmd:
				key := c.Args()[1].(string)
				h.counts[key]++
				c.SetVal(h.counts[key])
			case *redis.BoolCmd:
				c.SetVal(true)
			}
		}
		return nil
	}
}

func TestRedisLimiter_IncrAndExpireShareOneTransaction(t *testing.T) {
	hook := &scriptedRedis{counts: map[string]int64{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, 2, time.Minute)
	ctx := context.Background()
	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit %d", i+1)
	}

	// Every hit is MULTI, INCR, EXPIRE key 60 NX, EXEC..
	require.Len(t, hook.seen, 12)
	for hit := 0; hit < 3; hit++ {
		cmds := hook.seen[hit*4 : hit*4+4]
		assert.Equal(t, "multi", cmds[0][0])
		assert.Equal(t, "incr", cmds[1][0])
		assert.Equal(t, []any{"expire", "veritrustx:rl:10.0.0.1", int64(60), "NX"}, cmds[2])
		assert.Equal(t, "exec", cmds[3][0])
	}
}
