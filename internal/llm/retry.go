package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

type retryClass int

const (
	retryNever retryClass = iota
	retryOnce
	retryAlways
)

// classify reports how often a failed narrative call may be repeated.
// A malformed narrative is regenerated at most once.
func classify(err error) retryClass {
	var maxTok *ErrMaxTokensExceeded
	var invalid *ErrInvalidResponse
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retryNever
	case errors.As(err, &maxTok):
		return retryNever
	case errors.As(err, &invalid):
		return retryOnce
	default:
		return retryAlways
	}
}

// RetryProvider repeats transient provider failures with jittered
// exponential waits.
type RetryProvider struct {
	inner  Provider
	policy RetryConfig
}

// WithRetry wraps p with retries. MaxAttempts below one means a single try.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	return &RetryProvider{inner: p, policy: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	onceUsed := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if onceUsed {
				return nil, err
			}
			onceUsed = true
		}
		if attempt >= r.policy.MaxAttempts {
			return nil, err
		}

		timer := time.NewTimer(r.wait(attempt-1, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// wait returns the pause before the next attempt. A provider supplied
// Retry-After wins over the computed schedule.
func (r *RetryProvider) wait(step int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	base := float64(r.policy.InitialWait) * math.Pow(r.policy.Multiplier, float64(step))
	base = math.Min(base, float64(r.policy.MaxWait))
	spread := 0.4*rand.Float64() + 0.8 // 80% to 120%
	return time.Duration(math.Max(base*spread, 0))
}

// TimeoutProvider puts a single deadline over each Generate call,
// retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout returns p unchanged for a non-positive timeout.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
