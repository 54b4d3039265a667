package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stateTransitionsTotal counts coordinator state transitions.
	stateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_state_transitions_total",
		Help: "Connection state transitions by source and target state",
	}, []string{"from", "to"})

	// errorsTotal counts surfaced error records.
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_errors_total",
		Help: "Surfaced error records by kind and severity",
	}, []string{"kind", "severity"})

	// recoveryActionsTotal counts recovery engine decisions.
	recoveryActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_recovery_actions_total",
		Help: "Recovery engine outcomes by error kind and action",
	}, []string{"kind", "action"})

	// downgradesTotal counts applied capability downgrades.
	downgradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_capability_downgrades_total",
		Help: "Applied capability downgrades by source (recovery or suggestion)",
	}, []string{"source"})

	// suggestionsTotal counts advisor suggestion outcomes.
	suggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_suggestions_total",
		Help: "Advisor suggestions by outcome (raised, applied, dismissed)",
	}, []string{"outcome"})
)

// observeTransition records one state transition.
func observeTransition(from, to ConnectionState) {
	stateTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

// observeError records one surfaced error record.
func observeError(rec ErrorRecord) {
	errorsTotal.WithLabelValues(rec.Kind.String(), rec.Severity.String()).Inc()
}

// observeRecoveryAction records one recovery engine decision.
func observeRecoveryAction(kind ErrorKind, action string) {
	recoveryActionsTotal.WithLabelValues(kind.String(), action).Inc()
}

// observeDowngrade records one applied capability downgrade.
func observeDowngrade(source string) {
	downgradesTotal.WithLabelValues(source).Inc()
}

// observeSuggestion records one advisor suggestion outcome.
func observeSuggestion(outcome string) {
	suggestionsTotal.WithLabelValues(outcome).Inc()
}
