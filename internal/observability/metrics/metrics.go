package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the request-level instruments.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Metrics exposes application-level instruments for entitlement decisions.
type Metrics struct {
	decisions        *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	configErrors     prometheus.Counter
	rateLimitDenied  *prometheus.CounterVec
	rateLimitAllowed *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zugang_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zugang_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

// New registers the decision instruments on the default registry.
func New() (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zugang_decisions_total",
			Help: "Entitlement decisions by operation, outcome and reason.",
		}, []string{"operation", "outcome", "reason"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zugang_upstream_errors_total",
			Help: "Failures talking to the billing provider or entity store.",
		}, []string{"upstream"}),
		configErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zugang_configuration_errors_total",
			Help: "Lookups naming permissions or tiers missing from static tables.",
		}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zugang_rate_limit_denied_total",
			Help: "Requests denied by the per-org resolve limiter.",
		}, []string{"endpoint"}),
		rateLimitAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zugang_rate_limit_allowed_total",
			Help: "Requests admitted by the per-org resolve limiter.",
		}, []string{"endpoint"}),
	}

	collectors := []prometheus.Collector{
		m.decisions, m.upstreamErrors, m.configErrors, m.rateLimitDenied, m.rateLimitAllowed,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

// RecordDecision increments decision counts.
func (m *Metrics) RecordDecision(operation, outcome, reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(
		strings.TrimSpace(operation),
		strings.TrimSpace(outcome),
		strings.TrimSpace(reason),
	).Inc()
}

// RecordUpstreamError increments upstream failure counts.
func (m *Metrics) RecordUpstreamError(upstream string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(strings.TrimSpace(upstream)).Inc()
}

// RecordConfigurationError increments the configuration mismatch count.
func (m *Metrics) RecordConfigurationError() {
	if m == nil {
		return
	}
	m.configErrors.Inc()
}

// RecordRateLimit increments limiter counts.
func (m *Metrics) RecordRateLimit(endpoint string, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.rateLimitAllowed.WithLabelValues(endpoint).Inc()
		return
	}
	m.rateLimitDenied.WithLabelValues(endpoint).Inc()
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
