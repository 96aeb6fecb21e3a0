package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "council_login_attempts_total",
		Help: "Total number of login attempts by result.",
	}, []string{"result"})
	logoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "council_logouts_total",
		Help: "Total number of logouts.",
	})
	chatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "council_chat_messages_total",
		Help: "Total number of chat messages received by transport.",
	}, []string{"transport"})
	chatConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "council_chat_ws_connections_active",
		Help: "Number of open chat WebSocket connections.",
	})
)
