// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotreport_http_requests_total",
			Help: "Total HTTP requests by route, method and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotreport_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotreport_http_active_requests",
			Help: "Requests currently being served.",
		},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotreport_db_query_duration_seconds",
			Help:    "Duration of repository operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotreport_db_query_errors_total",
			Help: "Repository operations that returned an error.",
		},
		[]string{"operation"},
	)

	SchemaReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotreport_schema_ready",
			Help: "1 once the database schema has been created.",
		},
	)

	SchemaAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotreport_schema_attempts_total",
			Help: "Schema creation attempts made at startup.",
		},
	)

	// Classifier
	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotreport_classifier_requests_total",
			Help: "Classifier calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotreport_classifier_duration_seconds",
			Help:    "Classifier call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spotreport_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	AnnotationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotreport_annotation_fallbacks_total",
			Help: "Annotations answered with the default because the classifier failed.",
		},
		[]string{"reason"},
	)

	PostsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotreport_posts_created_total",
			Help: "Posts accepted and stored.",
		},
	)

	PostsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotreport_posts_rejected_total",
			Help: "Post submissions refused, by reason.",
		},
		[]string{"reason"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveDB records a repository operation.
func ObserveDB(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveClassifier records a classifier call.
func ObserveClassifier(operation, outcome string, start time.Time) {
	ClassifierRequests.WithLabelValues(operation, outcome).Inc()
	ClassifierDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
