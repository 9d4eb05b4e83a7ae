package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks executed logical requests by terminal outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiwatch_requests_total",
			Help: "Total number of logical requests executed",
		},
		[]string{"method", "outcome"},
	)

	// AttemptsTotal tracks individual transport attempts
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiwatch_attempts_total",
			Help: "Total number of transport attempts",
		},
		[]string{"method"},
	)

	// RetriesTotal tracks retries by the reason that triggered them
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiwatch_retries_total",
			Help: "Total number of retries performed",
		},
		[]string{"reason"},
	)

	// RequestDuration tracks end-to-end request latency including waits
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apiwatch_request_duration_seconds",
			Help:    "End-to-end request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// WebhookEventsTotal tracks captured webhook deliveries
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiwatch_webhook_events_total",
			Help: "Total number of webhook events captured",
		},
		[]string{"method"},
	)

	// HistoryRecords tracks rows currently kept in the history store
	HistoryRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apiwatch_history_records",
			Help: "Number of records in the history store",
		},
	)
)
