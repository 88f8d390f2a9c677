package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einvoice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "einvoice_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SubmissionOutcomes counts sign, issue and resend attempts by outcome.
	SubmissionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einvoice_submission_outcomes_total",
			Help: "Outcomes of sign, issue and resend requests",
		},
		[]string{"op", "outcome"},
	)
)
