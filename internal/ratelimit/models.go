// Package ratelimit protects the public subscribe endpoint from abuse with a
// per-IP sliding window. The subscribe workflow sends an email per request,
// so an unthrottled caller could turn the service into a spam relay.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// BucketStore tracks request counts per key over a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
