package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "partyrelay_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partyrelay_ws_messages_sent_total",
			Help: "Total websocket messages queued for delivery.",
		},
	)
	messagesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partyrelay_ws_messages_dropped_total",
			Help: "Total websocket messages dropped due to full send buffers.",
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsGauge, messagesSent, messagesDropped)
}
