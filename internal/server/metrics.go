package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	govRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gov_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	govRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gov_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	govEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gov_evaluations_total",
		Help: "Total governance evaluations by overall risk level.",
	}, []string{"risk_level"})

	govEvaluationUncertainTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gov_evaluations_uncertain_total",
		Help: "Total evaluations that carried uncertainty notes.",
	})

	govAuditRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gov_audit_records_total",
		Help: "Total audit records appended.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		govRequestsTotal.WithLabelValues(method, path, status).Inc()
		govRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// recordEvaluation records one evaluation outcome.
func recordEvaluation(riskLevel string, uncertain bool) {
	govEvaluationsTotal.WithLabelValues(riskLevel).Inc()
	if uncertain {
		govEvaluationUncertainTotal.Inc()
	}
}

// recordAuditAppend records one audit record append.
func recordAuditAppend() {
	govAuditRecordsTotal.Inc()
}
