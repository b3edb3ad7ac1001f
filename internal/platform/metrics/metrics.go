package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appraisal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appraisal_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Transitions counts assessment workflow actions (ok|rejected|error).
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appraisal_assessment_transitions_total",
			Help: "Total number of assessment workflow transitions",
		},
		[]string{"action", "result"},
	)

	// Notifications counts per-recipient dispatch outcomes (sent|failed|skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appraisal_notifications_total",
			Help: "Total number of notification deliveries by outcome",
		},
		[]string{"type", "result"},
	)

	BackgroundTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appraisal_background_tasks",
			Help: "Number of background tasks currently running",
		},
	)
)

func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
