// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_chat_turns_total",
			Help: "Total number of chat turns processed by the session manager",
		},
		[]string{"outcome"}, // answered, apology, refine, feedback
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "widget_chat_turn_duration_seconds",
			Help: "Duration of a chat turn including the upstream call",
		},
		[]string{"outcome"},
	)

	FeedbackFlows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_feedback_flows_total",
			Help: "Feedback sub-flows by detected type and resolution",
		},
		[]string{"type", "resolution"}, // confirmed, declined, abandoned
	)

	StorageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_storage_fallbacks_total",
			Help: "Reads served from the backup tier after a primary miss",
		},
		[]string{"key"},
	)

	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_storage_failures_total",
			Help: "Swallowed storage tier failures",
		},
		[]string{"tier", "op"},
	)

	TooltipsShown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_tooltips_shown_total",
			Help: "Tooltips scheduled for display, by selection reason",
		},
		[]string{"reason"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "widget_sessions_active",
			Help: "Number of live widget sessions in the registry",
		},
	)
)
