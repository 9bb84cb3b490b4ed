// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auditdays"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// Business metrics
var (
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Total number of man-day calculations by outcome",
		},
		[]string{"standard", "audit_type", "outcome"},
	)

	CalculatedManDays = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculated_man_days",
			Help:      "Distribution of computed total man-days",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	FloorClampsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculation_floor_clamps_total",
			Help:      "Calculations whose raw total fell below one day",
		},
	)

	ConfigSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_saves_total",
			Help:      "Total number of configuration revisions saved",
		},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of exports generated",
		},
		[]string{"format"},
	)
)

// Calculation outcomes
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// ObserveCalculation records one engine invocation.
func ObserveCalculation(standard, auditType, outcome string, total int, clamped bool) {
	CalculationsTotal.WithLabelValues(standard, auditType, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	CalculatedManDays.Observe(float64(total))
	if clamped {
		FloorClampsTotal.Inc()
	}
}
