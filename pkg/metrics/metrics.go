package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderdesk_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// RealtimeClients tracks currently connected realtime subscribers.
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenderdesk_realtime_clients",
			Help: "Number of connected realtime clients",
		},
	)

	// ReminderRuns counts deadline reminder sweeps and their outcome (success|error).
	ReminderRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderdesk_reminder_runs_total",
			Help: "Total number of tender deadline reminder sweeps",
		},
		[]string{"result"},
	)

	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderdesk_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenderdesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
