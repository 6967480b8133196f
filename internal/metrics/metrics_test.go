package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordSimulation(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(SimulationTrialsTotal)

	RecordSimulation("success", 1000, 0.02)
	RecordSimulation("invalid_input", 0, 0)

	assert.Equal(t, before+1000, testutil.ToFloat64(SimulationTrialsTotal))
}

func TestRecordDegenerateDraws(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name  string
		count int64
		delta float64
	}{
		{name: "positive count", count: 7, delta: 7},
		{name: "zero count", count: 0, delta: 0},
		{name: "negative count ignored", count: -3, delta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(DegenerateDrawsTotal)
			assert.NotPanics(t, func() {
				RecordDegenerateDraws(tt.count)
			})
			assert.Equal(t, before+tt.delta, testutil.ToFloat64(DegenerateDrawsTotal))
		})
	}
}

func TestRecordAllocation(t *testing.T) {
	InitRegistry()

	RecordAllocation("allocated", 9900, 100)
	assert.Equal(t, 9900.0, testutil.ToFloat64(AllocatedBudget))
	assert.Equal(t, 100.0, testutil.ToFloat64(UnallocatedBudget))

	RecordCandidate("WIN", true)
	RecordCandidate("WIN", false)
	UpdateRaceScore("R1", 0.031)
	assert.Equal(t, 0.031, testutil.ToFloat64(RaceScore.WithLabelValues("R1")))
}

func TestRecordPlanPublished(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(PlansPublishedTotal.WithLabelValues("kafka", "error"))
	RecordPlanPublished("kafka", errors.New("broker down"))
	RecordPlanPublished("kafka", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(PlansPublishedTotal.WithLabelValues("kafka", "error")))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordPersistenceFailure("simulation_record")
	RecordRecordSaved()

	handler := Handler()
	require.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "paddock_persistence_failures_total")
}

func BenchmarkRecordSimulation(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordSimulation("success", 1000, 0.01)
	}
}
