package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
)

// recentRuns bounds the in-memory run duration window used by Summary.
const recentRuns = 1024

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Session metrics
	Sessions     prometheus.Gauge
	SnippetSaves *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	registry  *prometheus.Registry
	startTime time.Time

	mu       sync.Mutex
	snapshot Snapshot
	runs     []runSample // ring buffer, newest at runsNext-1
	runsNext int
}

// Snapshot holds current counter values for the JSON stats API
type Snapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	TotalErrors    int64 `json:"total_errors"`
	ActiveSessions int64 `json:"active_sessions"`
	TotalRuns      int64 `json:"total_runs"`
	FailedSaves    int64 `json:"failed_saves"`
}

type runSample struct {
	outcome  dispatch.Outcome
	duration time.Duration
}

// NewMetrics registers all collectors on reg. A nil reg gets a private
// registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		runs:      make([]runSample, 0, recentRuns),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_runs_total",
				Help: "Total number of snippet runs",
			},
			[]string{"language", "outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_run_duration_seconds",
				Help:    "Snippet run duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"language"},
		),
		Sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_sessions_active",
				Help: "Number of live sessions",
			},
		),
		SnippetSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_snippet_saves_total",
				Help: "Snippet save attempts",
			},
			[]string{"language", "result"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "playground_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)
	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveRun records a finished snippet run.
func (m *Metrics) ObserveRun(languageID string, outcome dispatch.Outcome, duration time.Duration) {
	m.RunsTotal.WithLabelValues(languageID, string(outcome)).Inc()
	m.RunDuration.WithLabelValues(languageID).Observe(duration.Seconds())

	sample := runSample{outcome: outcome, duration: duration}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.TotalRuns++
	if len(m.runs) < recentRuns {
		m.runs = append(m.runs, sample)
	} else {
		m.runs[m.runsNext] = sample
	}
	m.runsNext = (m.runsNext + 1) % recentRuns
}

// SessionsActive sets the number of live sessions.
func (m *Metrics) SessionsActive(n int) {
	m.Sessions.Set(float64(n))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(n)
	m.mu.Unlock()
}

// SnippetSaved records a save attempt.
func (m *Metrics) SnippetSaved(languageID string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
		m.mu.Lock()
		m.snapshot.FailedSaves++
		m.mu.Unlock()
	}
	m.SnippetSaves.WithLabelValues(languageID, result).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current counter values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Uptime returns time since the metrics were created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
