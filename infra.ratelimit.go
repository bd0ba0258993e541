package main

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ensure both limiters implement RateLimiter.
var (
	_ RateLimiter = (*memoryRateLimiter)(nil)
	_ RateLimiter = (*redisRateLimiter)(nil)
)

// RateLimitResult is the state of a client window after a hit.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts hits per client key inside fixed time windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

func newRateLimitResult(count, max int, resetAt time.Time) RateLimitResult {
	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   count <= max,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

type fixedWindow struct {
	start time.Time
	count int
}

// memoryRateLimiter keeps one fixed window per client in process memory.
type memoryRateLimiter struct {
	clock   Clocker
	window  time.Duration
	max     int
	mu      sync.Mutex
	windows map[string]*fixedWindow
}

// NewMemoryRateLimiter provides an in-process fixed-window limiter
// allowing max hits per key within each window.
func NewMemoryRateLimiter(clock Clocker, window time.Duration, max int) *memoryRateLimiter {
	return &memoryRateLimiter{
		clock:   clock,
		window:  window,
		max:     max,
		windows: make(map[string]*fixedWindow),
	}
}

// Allow records a hit for key. A new window starts on the first hit
// after the previous one expired.
func (rl *memoryRateLimiter) Allow(_ context.Context, key string) (RateLimitResult, error) {
	now := rl.clock.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.start.Add(rl.window)) {
		w = &fixedWindow{start: now}
		rl.windows[key] = w
	}
	w.count++
	return newRateLimitResult(w.count, rl.max, w.start.Add(rl.window)), nil
}

// Sweep drops every expired window and returns how many were removed.
func (rl *memoryRateLimiter) Sweep() int {
	now := rl.clock.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, w := range rl.windows {
		if !now.Before(w.start.Add(rl.window)) {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps expired windows on every tick until the context is done.
func (rl *memoryRateLimiter) RunSweeper(ctx context.Context, logger *zap.Logger, clock TickerClocker, every time.Duration) error {
	ticker := clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				logger.Debug("ratelimit: expired windows removed", zap.Int("count", n))
			}
		}
	}
}

// redisRateLimiter shares the fixed windows across instances through redis.
type redisRateLimiter struct {
	client *redis.Client
	clock  Clocker
	window time.Duration
	max    int
	prefix string
}

// NewRedisRateLimiter provides a fixed-window limiter backed by redis counters.
func NewRedisRateLimiter(client *redis.Client, clock Clocker, window time.Duration, max int) RateLimiter {
	return &redisRateLimiter{
		client: client,
		clock:  clock,
		window: window,
		max:    max,
		prefix: "ratelimit:",
	}
}

// Allow increments the counter of key. The expiry is only set by the
// first hit of a window so later hits do not extend it.
func (rl *redisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	rkey := rl.prefix + key
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.ExpireNX(ctx, rkey, rl.window)
	pttl := pipe.PTTL(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, err
	}
	ttl := pttl.Val()
	if ttl < 0 {
		ttl = rl.window
	}
	return newRateLimitResult(int(incr.Val()), rl.max, rl.clock.Now().Add(ttl)), nil
}
