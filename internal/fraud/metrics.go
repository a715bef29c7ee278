package fraud

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_messages_scored_total",
			Help: "Total number of messages scored, by classification",
		},
		[]string{"classification"},
	)

	alertsEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_alerts_emitted_total",
			Help: "Total number of alerts the gatekeeper let through",
		},
	)

	alertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_alerts_suppressed_total",
			Help: "Total number of suppressed alerts, by reason",
		},
		[]string{"reason"},
	)
)

func reasonLabel(reason string) string {
	return strings.ReplaceAll(reason, " ", "_")
}
