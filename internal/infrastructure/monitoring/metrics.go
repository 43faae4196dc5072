package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Sketch metrics
	Mounts          *prometheus.CounterVec
	SketchErrors    *prometheus.CounterVec
	FramesRendered  prometheus.Counter
	FrameDuration   prometheus.Histogram
	InstancesActive prometheus.Gauge
	Resizes         prometheus.Counter

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Studio metrics
	FlowCalls    *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	TotalMounts    int64   `json:"total_mounts"`
	FailedMounts   int64   `json:"failed_mounts"`
	ActiveSessions int64   `json:"active_sessions"`
	TotalDuration  float64 `json:"total_duration_seconds"`
	RequestCount   int64   `json:"request_count"`
}

// NewMetrics creates a collector backed by its own registry so several
// servers (and tests) can coexist in one process
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Sketch metrics
		Mounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_mounts_total",
				Help: "Sketch mount attempts by outcome",
			},
			[]string{"outcome"},
		),
		SketchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_sketch_errors_total",
				Help: "Sketch errors delivered to hosts by kind",
			},
			[]string{"kind"},
		),
		FramesRendered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sketchbox_frames_rendered_total",
				Help: "Total number of frames drawn",
			},
		),
		FrameDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sketchbox_frame_duration_seconds",
				Help:    "Time spent in the draw callback",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .016, .033, .05, .1, .25, 1},
			},
		),
		InstancesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sketchbox_instances_active",
				Help: "Number of running sketch instances",
			},
		),
		Resizes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sketchbox_resizes_total",
				Help: "Surface reallocations caused by container resizes",
			},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sketchbox_sessions_active",
				Help: "Number of open sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sketchbox_sessions_total",
				Help: "Total number of sessions created",
			},
		),

		// Studio metrics
		FlowCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_studio_flow_calls_total",
				Help: "Code source flow invocations",
			},
			[]string{"flow", "status"},
		),
		FlowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_studio_flow_duration_seconds",
				Help:    "Code source flow duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"flow"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sketchbox_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sketchbox_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordMount records a mount attempt
func (m *Metrics) RecordMount(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.Mounts.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	m.snapshot.TotalMounts++
	if !ok {
		m.snapshot.FailedMounts++
	}
	m.mu.Unlock()
}

// RecordSketchError counts a delivered sketch error
func (m *Metrics) RecordSketchError(kind string) {
	if m == nil {
		return
	}
	m.SketchErrors.WithLabelValues(kind).Inc()
}

// RecordFrame records one drawn frame
func (m *Metrics) RecordFrame(duration time.Duration) {
	if m == nil {
		return
	}
	m.FramesRendered.Inc()
	m.FrameDuration.Observe(duration.Seconds())
}

// IncInstances increments running instances
func (m *Metrics) IncInstances() {
	if m != nil {
		m.InstancesActive.Inc()
	}
}

// DecInstances decrements running instances
func (m *Metrics) DecInstances() {
	if m != nil {
		m.InstancesActive.Dec()
	}
}

// IncResizes counts a surface reallocation
func (m *Metrics) IncResizes() {
	if m != nil {
		m.Resizes.Inc()
	}
}

// SetSessionsActive sets the number of open sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsTotal increments the sessions created counter
func (m *Metrics) IncSessionsTotal() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
}

// RecordFlowCall records a studio flow invocation
func (m *Metrics) RecordFlowCall(flow, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.FlowCalls.WithLabelValues(flow, status).Inc()
	m.FlowDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// Snapshot returns the JSON-friendly counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns time since the collector was created
func (m *Metrics) UptimeDuration() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}
