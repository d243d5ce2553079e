// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer used by the deal-analyzer server.
package telemetry

import (
	"strconv"
	"time"

	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calculations counts engine runs by deal category and purchase method.
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deal_analyzer",
			Name:      "calculations_total",
			Help:      "Deal metric calculations by category and purchase method",
		},
		[]string{"category", "purchase_method"},
	)

	// Warnings counts validation warnings attached to responses.
	Warnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deal_analyzer",
			Name:      "validation_warnings_total",
			Help:      "Validation warnings returned alongside deal metrics",
		},
	)

	// Optimizations counts optimizer solves by target and outcome.
	Optimizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deal_analyzer",
			Name:      "optimizations_total",
			Help:      "Optimizer solves by target metric and whether they converged",
		},
		[]string{"target", "converged"},
	)

	// Requests counts HTTP requests by route and status code.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deal_analyzer",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	// RequestDuration observes HTTP handling latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "deal_analyzer",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// RecordCalculation counts one computed metrics record.
func RecordCalculation(m deal.Metrics) {
	Calculations.WithLabelValues(string(m.Category), string(m.PurchaseMethod)).Inc()
}

// RecordWarnings adds n validation warnings.
func RecordWarnings(n int) {
	if n > 0 {
		Warnings.Add(float64(n))
	}
}

// RecordOptimization counts one optimizer solve.
func RecordOptimization(target string, converged bool) {
	Optimizations.WithLabelValues(target, strconv.FormatBool(converged)).Inc()
}

// RecordRequest counts a finished HTTP request.
func RecordRequest(route string, status int, elapsed time.Duration) {
	Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
