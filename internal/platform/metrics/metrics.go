package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the viewer server and
// the AR session controller.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     prometheus.Counter
	errorsTotal       prometheus.Counter
	sessionsStarted   prometheus.Counter
	sessionsFailed    *prometheus.CounterVec
	sessionsEnded     *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	placementsTotal   prometheus.Counter
	placementFailures prometheus.Counter
	modeDecisions     *prometheus.CounterVec
}

// New creates and registers Prometheus metrics for the viewer.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arview_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arview_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arview_ar_sessions_started_total",
			Help: "Total number of AR sessions that became active",
		}),
		sessionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arview_ar_sessions_failed_total",
			Help: "Total number of AR session starts that failed, by reason",
		}, []string{"reason"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arview_ar_sessions_ended_total",
			Help: "Total number of AR sessions torn down, by cause",
		}, []string{"cause"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arview_ar_sessions_active",
			Help: "Number of AR sessions currently active",
		}),
		placementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arview_placements_total",
			Help: "Total number of models placed in AR",
		}),
		placementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arview_placement_failures_total",
			Help: "Total number of placement attempts that failed to load the model",
		}),
		modeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arview_mode_decisions_total",
			Help: "Total number of AR mode decisions served, by mode",
		}, []string{"mode"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.sessionsStarted,
		m.sessionsFailed,
		m.sessionsEnded,
		m.activeSessions,
		m.placementsTotal,
		m.placementFailures,
		m.modeDecisions,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SessionStarted records a session reaching Active
func (m *Metrics) SessionStarted() {
	m.sessionsStarted.Inc()
	m.activeSessions.Inc()
}

// SessionFailed records a failed start
func (m *Metrics) SessionFailed(reason string) {
	m.sessionsFailed.WithLabelValues(reason).Inc()
}

// SessionEnded records a completed teardown
func (m *Metrics) SessionEnded(external bool) {
	cause := "stop"
	if external {
		cause = "external"
	}
	m.sessionsEnded.WithLabelValues(cause).Inc()
	m.activeSessions.Dec()
}

// Placed records a placed model
func (m *Metrics) Placed() {
	m.placementsTotal.Inc()
}

// PlacementFailed records a placement aborted by a load failure
func (m *Metrics) PlacementFailed() {
	m.placementFailures.Inc()
}

// ModeDecided records a mode served to a client
func (m *Metrics) ModeDecided(mode string) {
	m.modeDecisions.WithLabelValues(mode).Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
