// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RealtimeSessionsActive tracks connected dashboard sessions.
	RealtimeSessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_sessions_active",
			Help: "Number of connected dashboard sessions",
		},
		[]string{"transport"},
	)

	// EventsBroadcastTotal counts events fanned out to sessions.
	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_broadcast_total",
			Help: "Realtime events broadcast to dashboard sessions",
		},
		[]string{"type"},
	)

	// SessionsDroppedTotal counts sessions closed because they fell behind.
	SessionsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_sessions_dropped_total",
			Help: "Sessions disconnected because their send buffer was full",
		},
	)

	// BackplaneErrorsTotal counts failed cross-instance publishes.
	BackplaneErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_backplane_errors_total",
			Help: "Errors publishing events to the backplane",
		},
		[]string{"backplane"},
	)

	// InboundMessagesTotal counts webhook messages by origin.
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Messages received on the webhook",
		},
		[]string{"origin"},
	)

	// BotSuppressedTotal counts user messages that arrived while trava was set.
	BotSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbound_bot_suppressed_total",
			Help: "User messages received while the lead was locked",
		},
	)

	// AgentMessagesTotal counts messages sent from the dashboard.
	AgentMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_messages_total",
			Help: "Messages sent by agents",
		},
		[]string{"type"},
	)

	// RelayDuration tracks automation relay call duration.
	RelayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_duration_seconds",
			Help:    "Automation relay duration including retries",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"result"},
	)

	// RelayResultsTotal counts relay outcomes.
	RelayResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_results_total",
			Help: "Automation relay results",
		},
		[]string{"result"},
	)

	// StoreDegradedTotal counts backend failures swallowed by the store.
	StoreDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_degraded_total",
			Help: "Backend errors degraded to empty results",
		},
		[]string{"store", "operation"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordRelay records the outcome of an automation relay call.
func RecordRelay(result string, duration float64) {
	RelayDuration.WithLabelValues(result).Observe(duration)
	RelayResultsTotal.WithLabelValues(result).Inc()
}

// RecordDegraded records a swallowed backend error.
func RecordDegraded(store, operation string) {
	StoreDegradedTotal.WithLabelValues(store, operation).Inc()
}

// IncrementSessions increments the active session count.
func IncrementSessions(transport string) {
	RealtimeSessionsActive.WithLabelValues(transport).Inc()
}

// DecrementSessions decrements the active session count.
func DecrementSessions(transport string) {
	RealtimeSessionsActive.WithLabelValues(transport).Dec()
}
