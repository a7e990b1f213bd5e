package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "depot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "depot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "depot",
			Subsystem: "inventory",
			Name:      "mutations_total",
			Help:      "Batched writes submitted to the store, by outcome.",
		},
		[]string{"outcome"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "depot",
			Subsystem: "inventory",
			Name:      "rejections_total",
			Help:      "Requests rejected by validation before any write.",
		},
		[]string{"action"},
	)

	snapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "depot",
			Subsystem: "sync",
			Name:      "snapshots_total",
			Help:      "Snapshots received from the store per collection.",
		},
		[]string{"collection"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		mutations,
		rejections,
		snapshots,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordMutation(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	mutations.WithLabelValues(outcome).Inc()
}

func RecordRejection(action string) {
	rejections.WithLabelValues(action).Inc()
}

func RecordSnapshot(collection string) {
	snapshots.WithLabelValues(collection).Inc()
}
