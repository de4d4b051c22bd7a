package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"bulletin/internal/platform/metrics"
	"bulletin/internal/transport/http/shared"
	dErrors "bulletin/pkg/domain-errors"
)

// Checker is the decision surface the middleware needs.
type Checker interface {
	CheckIP(ctx context.Context, ip string) (*Result, error)
}

// Middleware rejects requests over the per-IP limit.
type Middleware struct {
	limiter  Checker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

// NewMiddleware builds the rate limit middleware. When disabled it passes
// every request through, which keeps test setups simple.
func NewMiddleware(limiter Checker, logger *slog.Logger, m *metrics.Metrics, disabled bool) *Middleware {
	if disabled {
		logger.Info("rate limiting disabled")
	}
	return &Middleware{limiter: limiter, logger: logger, metrics: m, disabled: disabled}
}

// Limit is the http middleware. Limiter failures fail open: losing Redis must
// not take subscriptions down with it.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := clientIP(r)

		result, err := m.limiter.CheckIP(ctx, ip)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed, allowing request",
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.metrics.IncrementRateLimited()
			m.logger.WarnContext(ctx, "request rate limited", "ip", ip)
			shared.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. The service is expected to sit
// behind a proxy that rewrites RemoteAddr; X-Forwarded-For is deliberately
// not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
