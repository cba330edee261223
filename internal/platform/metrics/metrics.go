package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the HLS gateway.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	sessionsStartedTotal prometheus.Counter
	sessionTimeoutsTotal prometheus.Counter
	sessionFailuresTotal prometheus.Counter
	activeSessions       prometheus.Gauge
	errorsTotal          prometheus.Counter
}

// New creates and registers Prometheus metrics for the gateway.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_requests_total",
		Help: "Total number of HTTP requests received",
	})
	sessionsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_sessions_started_total",
		Help: "Total number of streaming sessions that reached the redirect",
	})
	sessionTimeoutsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_session_timeouts_total",
		Help: "Total number of sessions killed because the playlist never appeared",
	})
	sessionFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_session_failures_total",
		Help: "Total number of sessions that failed before the redirect",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hls_active_sessions",
		Help: "Number of sessions currently inside the admission gate",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		sessionsStartedTotal,
		sessionTimeoutsTotal,
		sessionFailuresTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:             registry,
		requestsTotal:        requestsTotal,
		sessionsStartedTotal: sessionsStartedTotal,
		sessionTimeoutsTotal: sessionTimeoutsTotal,
		sessionFailuresTotal: sessionFailuresTotal,
		activeSessions:       activeSessions,
		errorsTotal:          errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncSessionsStarted increments the successful session counter.
func (m *Metrics) IncSessionsStarted() {
	m.sessionsStartedTotal.Inc()
}

// IncSessionTimeouts increments the readiness-timeout counter.
func (m *Metrics) IncSessionTimeouts() {
	m.sessionTimeoutsTotal.Inc()
}

// IncSessionFailures increments the failed session counter.
func (m *Metrics) IncSessionFailures() {
	m.sessionFailuresTotal.Inc()
}

// SessionStarted increments the active-sessions gauge; called right after a
// request passes the admission gate.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the active-sessions gauge; called when the permit
// is released.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
