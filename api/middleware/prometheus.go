package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	togglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_toggles_total",
			Help: "Total number of like/follow toggles by resulting state",
		},
		[]string{"kind", "state"},
	)

	contentCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network_content_created_total",
			Help: "Total number of posts and comments created",
		},
		[]string{"kind"},
	)
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
			serviceName,
		).Inc()

		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			serviceName,
		).Observe(duration)
	}
}

// RecordToggle counts a like or follow toggle; on is the state it ended in.
func RecordToggle(kind string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	togglesTotal.WithLabelValues(kind, state).Inc()
}

func RecordCreated(kind string) {
	contentCreatedTotal.WithLabelValues(kind).Inc()
}
