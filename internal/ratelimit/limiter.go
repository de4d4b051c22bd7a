package ratelimit

import (
	"context"
	"time"
)

// Limiter applies one policy (limit per window) over a BucketStore.
type Limiter struct {
	store  BucketStore
	limit  int
	window time.Duration
}

// NewLimiter builds a limiter allowing limit requests per window per key.
func NewLimiter(store BucketStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// CheckIP evaluates the policy for a client IP.
func (l *Limiter) CheckIP(ctx context.Context, ip string) (*Result, error) {
	return l.store.Allow(ctx, "ip:"+ip, l.limit, l.window)
}
