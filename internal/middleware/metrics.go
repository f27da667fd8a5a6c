package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "symptom_check"

// Analysis outcome labels.
const (
	OutcomeParsed   = "parsed"
	OutcomeFallback = "fallback"
)

// Metrics stores application metrics. A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestsInProgress prometheus.Gauge
	analysesTotal      *prometheus.CounterVec
	rateLimitedTotal   prometheus.Counter
	providerErrors     *prometheus.CounterVec
	providerSeconds    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, partitioned by status code.",
		}, []string{"code"}),
		requestsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "HTTP requests currently being served.",
		}),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses returned, partitioned by parsed or fallback outcome.",
		}, []string{"outcome"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit.",
		}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed provider calls, partitioned by error kind.",
		}, []string{"kind"}),
		providerSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_seconds",
			Help:      "Latency of provider calls in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30},
		}),
	}

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestsInProgress,
		m.analysesTotal,
		m.rateLimitedTotal,
		m.providerErrors,
		m.providerSeconds,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MetricsMiddleware tracks request counts by status code.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsInProgress.Inc()
		defer m.requestsInProgress.Dec()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		m.requestsTotal.WithLabelValues(strconv.Itoa(wrapped.statusCode)).Inc()
	})
}

// ObserveAnalysis counts a returned analysis.
func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
}

// ObserveProviderCall records one provider round trip. kind is "" on success.
func (m *Metrics) ObserveProviderCall(d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.providerSeconds.Observe(d.Seconds())
	if kind != "" {
		m.providerErrors.WithLabelValues(kind).Inc()
	}
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
