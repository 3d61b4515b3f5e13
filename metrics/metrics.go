package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_decisions_total",
			Help: "Total number of credit decisions by outcome",
		},
		[]string{"outcome"},
	)

	AdverseActionReasonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_adverse_action_reasons_total",
			Help: "Adverse-action reasons disclosed on rejected applications",
		},
		[]string{"reason"},
	)

	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_decision_duration_seconds",
			Help:    "Time spent scoring and explaining one applicant",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	DecisionSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_decision_save_failures_total",
			Help: "Audit records that could not be written",
		},
	)

	ModelCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_model_cache_lookups_total",
			Help: "Fitted-model cache lookups by result",
		},
		[]string{"result"},
	)

	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// Outcome labels DecisionsTotal.
func Outcome(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
