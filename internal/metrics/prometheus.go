package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the API server
var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// WebSocket metrics
	websocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostwatch_websocket_connections_total",
			Help: "Total number of WebSocket connections",
		},
		[]string{"stream_type"},
	)

	websocketConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hostwatch_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
		[]string{"stream_type"},
	)

	rateLimitedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostwatch_rate_limited_requests_total",
			Help: "Total number of rate limited requests",
		},
		[]string{"endpoint"},
	)

	// Agent ingestion
	runtimeSamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostwatch_runtime_samples_total",
			Help: "Total number of runtime samples reported by agents",
		},
		[]string{"status"},
	)

	registeredClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostwatch_registered_clients",
			Help: "Number of registered monitored hosts",
		},
	)

	// Chart assembly
	chartsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostwatch_charts_built_total",
			Help: "Total number of chart options built, by panel",
		},
		[]string{"panel"},
	)

	chartBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostwatch_chart_build_duration_seconds",
			Help:    "Time spent assembling chart options",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// Ring buffer store
	ringBufferPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostwatch_ringbuffer_points_total",
			Help: "Total number of points added to ring buffers",
		},
	)

	ringBufferSeriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostwatch_ringbuffer_series_total",
			Help: "Current number of active ring buffer series",
		},
	)

	ringBufferDroppedPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostwatch_ringbuffer_dropped_points_total",
			Help: "Total number of points dropped due to limits",
		},
	)

	ringBufferPointsPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostwatch_ringbuffer_points_per_second",
			Help: "Current rate of points being added to ring buffers",
		},
	)
)

// RecordHTTPRequest records metrics for HTTP requests
func RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	labels := prometheus.Labels{
		"method":      method,
		"path":        path,
		"status_code": strconv.Itoa(statusCode),
	}

	httpRequestsTotal.With(labels).Inc()
	httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// RecordWebSocketConnection records WebSocket connection metrics
func RecordWebSocketConnection(streamType string) {
	websocketConnectionsTotal.With(prometheus.Labels{"stream_type": streamType}).Inc()
	websocketConnectionsActive.With(prometheus.Labels{"stream_type": streamType}).Inc()
}

// RecordWebSocketDisconnection records WebSocket disconnection metrics
func RecordWebSocketDisconnection(streamType string) {
	websocketConnectionsActive.With(prometheus.Labels{"stream_type": streamType}).Dec()
}

// RecordRateLimitedRequest records rate limiting metrics
func RecordRateLimitedRequest(endpoint string) {
	rateLimitedRequestsTotal.With(prometheus.Labels{"endpoint": endpoint}).Inc()
}

// RecordRuntimeSample records an agent sample as "accepted", "duplicate" or "rejected"
func RecordRuntimeSample(status string) {
	runtimeSamplesTotal.With(prometheus.Labels{"status": status}).Inc()
}

// SetRegisteredClients sets the registered host gauge
func SetRegisteredClients(n int) {
	registeredClients.Set(float64(n))
}

// RecordChartBuilt records one assembled chart option
func RecordChartBuilt(panel string, duration time.Duration) {
	chartsBuiltTotal.With(prometheus.Labels{"panel": panel}).Inc()
	chartBuildDuration.Observe(duration.Seconds())
}

// RecordRingBufferPoint records when a point is added to the ring buffer
func RecordRingBufferPoint() {
	ringBufferPointsTotal.Inc()
}

// RecordRingBufferDroppedPoint records a point rejected by the per-series guardrail
func RecordRingBufferDroppedPoint() {
	ringBufferDroppedPointsTotal.Inc()
}

// UpdateRingBufferMetrics updates current ring buffer health metrics
func UpdateRingBufferMetrics(seriesCount int64, pointsPerSec int64) {
	ringBufferSeriesTotal.Set(float64(seriesCount))
	ringBufferPointsPerSecond.Set(float64(pointsPerSec))
}
