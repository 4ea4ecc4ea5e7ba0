package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Kiosk-level counters exposed on /metrics.
var (
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_resolutions_total",
		Help: "Badge status resolutions by resulting state.",
	}, []string{"state"})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_actions_total",
		Help: "Attendance actions by action and outcome.",
	}, []string{"action", "outcome"})

	GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_gate_rejections_total",
		Help: "Client-side gate rejections by reason.",
	}, []string{"reason"})

	TickerActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_ticker_active",
		Help: "Whether an elapsed-time ticker is currently running.",
	})
)
