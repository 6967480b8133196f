package metrics

import "github.com/prometheus/client_golang/prometheus"

// Allocation counters
var (
	AllocationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "allocation_runs_total",
		Help:      "Total number of allocation passes by outcome",
	}, []string{"outcome"})

	CandidatesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "candidates_evaluated_total",
		Help:      "Total number of betting candidates scored by market",
	}, []string{"market"})

	CandidatesAcceptedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "candidates_accepted_total",
		Help:      "Total number of betting candidates with a positive Kelly fraction by market",
	}, []string{"market"})

	PlansPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "plans_published_total",
		Help:      "Total number of allocation plans published by publisher and status",
	}, []string{"publisher", "status"})
)

// Allocation gauges
var (
	AllocatedBudget = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paddock",
		Name:      "allocated_budget",
		Help:      "Budget allocated by the latest allocation pass",
	})

	UnallocatedBudget = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paddock",
		Name:      "unallocated_budget",
		Help:      "Budget left unallocated by the latest allocation pass",
	})

	RaceScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "paddock",
		Name:      "race_score",
		Help:      "Expected log-growth score of each race in the latest pass",
	}, []string{"race_id"})
)

// RecordAllocation records the outcome of an allocation pass.
func RecordAllocation(outcome string, allocated, unallocated float64) {
	AllocationRunsTotal.WithLabelValues(outcome).Inc()
	AllocatedBudget.Set(allocated)
	UnallocatedBudget.Set(unallocated)
}

// RecordCandidate records a scored candidate.
func RecordCandidate(market string, accepted bool) {
	CandidatesEvaluatedTotal.WithLabelValues(market).Inc()
	if accepted {
		CandidatesAcceptedTotal.WithLabelValues(market).Inc()
	}
}

// UpdateRaceScore sets the score gauge of a race.
func UpdateRaceScore(raceID string, score float64) {
	RaceScore.WithLabelValues(raceID).Set(score)
}

// RecordPlanPublished records a publish attempt.
func RecordPlanPublished(publisher string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PlansPublishedTotal.WithLabelValues(publisher, status).Inc()
}
