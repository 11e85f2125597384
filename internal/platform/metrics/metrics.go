package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. Constructed once
// at startup with the default registerer; tests pass their own registry so
// packages can be exercised in isolation.
type Metrics struct {
	// ActiveConnections tracks live websocket sessions.
	// Labels: channel_kind (conversation|room)
	ActiveConnections *prometheus.GaugeVec

	// MessagesTotal counts messages accepted and persisted.
	MessagesTotal prometheus.Counter

	// BroadcastFailures counts sends that failed and pruned a connection.
	BroadcastFailures prometheus.Counter

	// StatusTransitions counts successful status advances.
	// Labels: status (delivered|read)
	StatusTransitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chat_active_connections",
				Help: "Current number of live websocket connections by channel kind",
			},
			[]string{"channel_kind"},
		),
		MessagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Total number of messages persisted and fanned out",
			},
		),
		BroadcastFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_broadcast_failures_total",
				Help: "Total number of failed sends that pruned a connection",
			},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_status_transitions_total",
				Help: "Total number of successful message status advances by target status",
			},
			[]string{"status"},
		),
	}
}
