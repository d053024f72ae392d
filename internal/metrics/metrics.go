package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "relay_http_request_duration_seconds",
			Help: "HTTP request duration, including long-poll waits",
			// Long polls run for up to WAIT_TIMEOUT seconds.
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 30},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_sent_total",
			Help: "Total messages accepted for delivery",
		},
	)

	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_send_failures_total",
			Help: "Total rejected sends",
		},
		[]string{"reason"}, // "body" or "recipient"
	)

	MessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_delivered_total",
			Help: "Total messages drained by receivers",
		},
	)

	Receives = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_receives_total",
			Help: "Total receive calls by outcome",
		},
		[]string{"outcome"}, // "delivered", "empty" or "cancelled"
	)

	ActiveWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_waiters",
			Help: "Receivers currently blocked in a long poll",
		},
	)

	// Size guard metrics
	Evictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_evictions_total",
			Help: "Total whole-store evictions by the size guard",
		},
	)

	StoreBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_store_estimated_bytes",
			Help: "Estimated store footprint at the last size check",
		},
	)
)
