package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the consent gate.
type Metrics struct {
	// Aggregate outcomes by decision and media type
	EvaluationOutcome *prometheus.CounterVec

	// Per-player blocks by reason code
	PlayersBlocked *prometheus.CounterVec

	// Overall evaluation latency including cache refresh and audit write
	EvaluateLatency prometheus.Histogram

	// Fail-closed hydration events
	HydrationFailures prometheus.Counter
}

// New creates a Metrics instance with all gate metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consentgate_evaluations_total",
			Help: "Total aggregate publish decisions by outcome and media type",
		}, []string{"decision", "media_type"}),

		PlayersBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consentgate_players_blocked_total",
			Help: "Total per-player denials by reason code",
		}, []string{"reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consentgate_evaluate_duration_seconds",
			Help:    "Duration of full publish evaluation including audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		HydrationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentgate_hydration_failures_total",
			Help: "Total roster hydration failures triggering fail-closed decisions",
		}),
	}
}

// IncrementOutcome records an aggregate decision.
func (m *Metrics) IncrementOutcome(decision, mediaType string) {
	if m != nil {
		m.EvaluationOutcome.WithLabelValues(decision, mediaType).Inc()
	}
}

// IncrementBlocked records one per-player denial.
func (m *Metrics) IncrementBlocked(reason string) {
	if m != nil {
		m.PlayersBlocked.WithLabelValues(reason).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementHydrationFailure records a fail-closed hydration event.
func (m *Metrics) IncrementHydrationFailure() {
	if m != nil {
		m.HydrationFailures.Inc()
	}
}
