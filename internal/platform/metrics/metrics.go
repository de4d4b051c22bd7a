package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubscribersCreated   prometheus.Counter
	SubscribersConfirmed prometheus.Counter
	EmailDispatchFailed  prometheus.Counter
	RateLimited          prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

// NewForTesting creates metrics on a private registry so tests do not collide
// on the default registerer.
func NewForTesting() *Metrics {
	return newWithRegisterer(prometheus.NewRegistry())
}

func newWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubscribersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bulletin_subscribers_created_total",
			Help: "Total number of pending subscribers created",
		}),
		SubscribersConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bulletin_subscribers_confirmed_total",
			Help: "Total number of subscribers promoted to confirmed",
		}),
		EmailDispatchFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bulletin_confirmation_emails_failed_total",
			Help: "Total number of confirmation emails that could not be dispatched",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "bulletin_requests_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulletin_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementSubscribersCreated increments the created counter by 1.
func (m *Metrics) IncrementSubscribersCreated() {
	if m == nil {
		return
	}
	m.SubscribersCreated.Inc()
}

// IncrementSubscribersConfirmed increments the confirmed counter by 1.
func (m *Metrics) IncrementSubscribersConfirmed() {
	if m == nil {
		return
	}
	m.SubscribersConfirmed.Inc()
}

// IncrementEmailDispatchFailed increments the dispatch-failure counter by 1.
func (m *Metrics) IncrementEmailDispatchFailed() {
	if m == nil {
		return
	}
	m.EmailDispatchFailed.Inc()
}

// IncrementRateLimited increments the rate-limited counter by 1.
func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveRequestDuration records one request's latency.
func (m *Metrics) ObserveRequestDuration(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
