package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lora_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// WizardTransitions counts onboarding step changes, including exits to external screens.
	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lora_onboarding_transitions_total",
			Help: "Number of onboarding wizard step transitions",
		},
		[]string{"from", "to"},
	)

	// WizardValidationFailures counts rejected step submissions by reason.
	WizardValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lora_onboarding_validation_failures_total",
			Help: "Number of onboarding submissions rejected by validation",
		},
		[]string{"step", "reason"},
	)

	// OnboardingSessions tracks live wizard sessions
	OnboardingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lora_onboarding_sessions",
			Help: "Number of live onboarding sessions",
		},
	)

	// LedgerPostings counts ledger transfers by kind and outcome.
	LedgerPostings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lora_ledger_postings_total",
			Help: "Number of ledger postings",
		},
		[]string{"kind", "status"},
	)

	// LoginAttempts counts PIN login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lora_login_attempts_total",
			Help: "Number of PIN login attempts",
		},
		[]string{"status"},
	)
)
