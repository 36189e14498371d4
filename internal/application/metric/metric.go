package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request processing time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP errors",
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of live WebSocket connections",
		},
	)

	activeRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_active_rooms",
			Help: "Number of rooms with at least one live connection",
		},
	)

	inboundFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_inbound_frames_total",
			Help: "Inbound WebSocket frames by envelope type",
		},
		[]string{"type"},
	)

	pttGrantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_ptt_grants_total",
			Help: "Number of granted floor requests",
		},
	)

	pttDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_ptt_denials_total",
			Help: "Number of denied floor requests",
		},
	)

	prunedSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_pruned_sessions_total",
			Help: "Number of sessions dropped after a failed delivery",
		},
	)
)

// RecordHTTPMetrics records counters and latency for one HTTP request.
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())

	if status >= 400 {
		httpErrorsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	}
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func SetActiveRooms(count int) {
	activeRooms.Set(float64(count))
}

func IncrementInboundFrames(frameType string) {
	inboundFramesTotal.WithLabelValues(frameType).Inc()
}

func IncrementPTTGrants() {
	pttGrantsTotal.Inc()
}

func IncrementPTTDenials() {
	pttDenialsTotal.Inc()
}

func IncrementPrunedSessions() {
	prunedSessionsTotal.Inc()
}
