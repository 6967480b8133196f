// Package metrics provides the centralized Prometheus metrics registry for paddock.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Simulation counters
var (
	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "simulations_total",
		Help:      "Total number of race simulations by status",
	}, []string{"status"})
	SimulationTrialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "simulation_trials_total",
		Help:      "Total number of Monte Carlo trials run",
	})
	DegenerateDrawsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "degenerate_draws_total",
		Help:      "Total number of selection steps that fell back to a uniform draw",
	})
)

// Persistence counters
var (
	PersistenceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "persistence_failures_total",
		Help:      "Total number of failed writes by entity",
	}, []string{"entity"})
	RecordsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paddock",
		Name:      "simulation_records_saved_total",
		Help:      "Total number of simulation records persisted",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paddock",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of a single race simulation in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	DailyRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paddock",
		Name:      "daily_run_duration_seconds",
		Help:      "Duration of a full daily simulate and allocate run in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register simulation metrics
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(SimulationTrialsTotal)
		registry.MustRegister(DegenerateDrawsTotal)
		registry.MustRegister(SimulationDuration)

		// Register persistence metrics
		registry.MustRegister(PersistenceFailuresTotal)
		registry.MustRegister(RecordsSavedTotal)

		// Register allocation metrics
		registry.MustRegister(AllocationRunsTotal)
		registry.MustRegister(CandidatesEvaluatedTotal)
		registry.MustRegister(CandidatesAcceptedTotal)
		registry.MustRegister(AllocatedBudget)
		registry.MustRegister(UnallocatedBudget)
		registry.MustRegister(RaceScore)
		registry.MustRegister(PlansPublishedTotal)
		registry.MustRegister(DailyRunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSimulation records a finished simulation.
func RecordSimulation(status string, trials int, durationSeconds float64) {
	SimulationsTotal.WithLabelValues(status).Inc()
	if trials > 0 {
		SimulationTrialsTotal.Add(float64(trials))
	}
	SimulationDuration.Observe(durationSeconds)
}

// RecordDegenerateDraws adds uniform fallback draws.
func RecordDegenerateDraws(count int64) {
	if count > 0 {
		DegenerateDrawsTotal.Add(float64(count))
	}
}

// RecordPersistenceFailure records a failed write for an entity type.
func RecordPersistenceFailure(entity string) {
	PersistenceFailuresTotal.WithLabelValues(entity).Inc()
}

// RecordRecordSaved records a persisted simulation record.
func RecordRecordSaved() {
	RecordsSavedTotal.Inc()
}

// RecordDailyRunDuration records the duration of a daily run.
func RecordDailyRunDuration(durationSeconds float64) {
	DailyRunDuration.Observe(durationSeconds)
}
