package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	roomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_active",
		Help: "Rooms currently held by the registry",
	})
	connectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Open websocket connections",
	})
	joinsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_joins_rejected_total",
		Help: "Join attempts rejected by the registry",
	}, []string{"reason"})
	roundsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rounds_resolved_total",
		Help: "Round outcomes by game type",
	}, []string{"game", "outcome"})
	messagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_dropped_total",
		Help: "Outbound messages dropped because a client's send buffer was full",
	})
)

func init() {
	prometheus.MustRegister(
		roomsActive,
		connectionsActive,
		joinsRejected,
		roundsResolved,
		messagesDropped,
	)
}
