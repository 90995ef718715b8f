package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	VersionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_versions_created_total",
			Help: "Content versions created, by content kind",
		},
		[]string{"kind"},
	)

	QuestionVersionsSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "question_versions_superseded_total",
			Help: "Question content edits that appended a new question version",
		},
	)

	DeliveriesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_created_total",
			Help: "Deliveries created, by content kind",
		},
		[]string{"kind"},
	)

	DeliveriesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_deleted_total",
			Help: "Deliveries removed",
		},
	)

	StatusDerivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_status_derivations_total",
			Help: "Delivery statuses derived at read time, by derived status",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(VersionsCreated)
	prometheus.MustRegister(QuestionVersionsSuperseded)
	prometheus.MustRegister(DeliveriesCreated)
	prometheus.MustRegister(DeliveriesDeleted)
	prometheus.MustRegister(StatusDerivations)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
