// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures HTTP
// traffic with bounded labels:
//
//   - method:   HTTP method verb (GET/POST/…)
//   - path:     the registered Gin route (e.g. /api/coach/applications/:id/approve);
//     falls back to the raw URL path when no route matched
//   - status:   numeric status code as a string (e.g. "200", "404")
//
// The two gates report their own outcomes through ObserveIdempotency and
// ObserveAccessDecision.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Idempotency outcomes recorded by ObserveIdempotency.
const (
	IdemOutcomeExecuted   = "executed"
	IdemOutcomeReplayed   = "replayed"
	IdemOutcomeInProgress = "in_progress"
	IdemOutcomeFailed     = "failed"
	IdemOutcomeUnkeyed    = "unkeyed"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is left out of the latency histogram to keep its cardinality low.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
			},
		},
		[]string{"method", "path"},
	)

	// idemOutcomes counts Idempotency Gate results per route.
	idemOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotency_outcomes_total",
			Help: "Idempotent request outcomes by route.",
		},
		[]string{"endpoint", "outcome"},
	)

	// accessDecisions counts Access Gate decisions by reason code.
	accessDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Athlete access decisions by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, idemOutcomes, accessDecisions)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := routeOf(c)
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		// Size is -1 for hijacked connections.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

// ObserveIdempotency records one Idempotency Gate outcome. The endpoint label
// is the route template so path parameters do not explode cardinality.
func ObserveIdempotency(c *gin.Context, outcome string) {
	idemOutcomes.WithLabelValues(c.Request.Method+" "+routeOf(c), outcome).Inc()
}

// ObserveAccessDecision records one Access Gate decision.
func ObserveAccessDecision(reason string) {
	accessDecisions.WithLabelValues(reason).Inc()
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
