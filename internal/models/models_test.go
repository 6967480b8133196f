package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRace() RaceParameter {
	return RaceParameter{
		RaceID: "R1",
		Nu:     0.2,
		Runners: []RunnerParameter{
			{RunnerID: 1, Mu: 1.0, Sigma: 0.1},
			{RunnerID: 2, Mu: 0.0, Sigma: 0.1},
		},
	}
}

func TestRaceParameterValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RaceParameter)
		code   string
	}{
		{name: "valid", mutate: func(r *RaceParameter) {}},
		{name: "zero sigma and nu is allowed", mutate: func(r *RaceParameter) { r.Nu = 0; r.Runners[0].Sigma = 0 }},
		{name: "missing race id", mutate: func(r *RaceParameter) { r.RaceID = "" }, code: "race_id_required"},
		{name: "single runner", mutate: func(r *RaceParameter) { r.Runners = r.Runners[:1] }, code: "too_few_runners"},
		{name: "duplicate runner", mutate: func(r *RaceParameter) { r.Runners[1].RunnerID = 1 }, code: "duplicate_runner"},
		{name: "negative sigma", mutate: func(r *RaceParameter) { r.Runners[1].Sigma = -0.1 }, code: "invalid_sigma"},
		{name: "nan sigma", mutate: func(r *RaceParameter) { r.Runners[1].Sigma = math.NaN() }, code: "invalid_sigma"},
		{name: "negative nu", mutate: func(r *RaceParameter) { r.Nu = -1 }, code: "invalid_nu"},
		{name: "nan nu", mutate: func(r *RaceParameter) { r.Nu = math.NaN() }, code: "invalid_nu"},
		{name: "infinite mu", mutate: func(r *RaceParameter) { r.Runners[0].Mu = math.Inf(1) }, code: "invalid_mu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := validRace()
			tt.mutate(&race)
			err := race.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.code, vErr.Code)
		})
	}
}

func TestRaceParameterTooManyRunners(t *testing.T) {
	race := RaceParameter{RaceID: "big"}
	for i := 0; i <= MaxRunners; i++ {
		race.Runners = append(race.Runners, RunnerParameter{RunnerID: i + 1})
	}
	err := race.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPairNormalisesOrder(t *testing.T) {
	assert.Equal(t, Pair{A: 2, B: 5}, NewPair(5, 2))
	assert.Equal(t, "2-5", NewPair(5, 2).String())
}

func TestSelectionTextParsing(t *testing.T) {
	var p Pair
	require.NoError(t, p.UnmarshalText([]byte("7-3")))
	assert.Equal(t, Pair{A: 3, B: 7}, p)
	assert.Error(t, p.UnmarshalText([]byte("3-3")))
	assert.Error(t, p.UnmarshalText([]byte("3")))

	var tr Triple
	require.NoError(t, tr.UnmarshalText([]byte("4-1-9")))
	assert.Equal(t, Triple{First: 4, Second: 1, Third: 9}, tr)
	assert.Error(t, tr.UnmarshalText([]byte("4-1-4")))
	assert.Error(t, tr.UnmarshalText([]byte("a-b-c")))

	id, err := ParseRunnerID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, id)
}

func TestSimulationRecordJSONKeys(t *testing.T) {
	created := time.Date(2024, 5, 26, 9, 0, 0, 0, time.UTC)
	record := SimulationRecord{
		SimID:         NewSimID("R1", "m1", created),
		RaceID:        "R1",
		ModelID:       "m1",
		CreatedAt:     created,
		K:             4,
		WinProbs:      map[int]float64{1: 0.75, 2: 0.25},
		PlaceProbs:    map[int]float64{1: 1, 2: 1},
		ExactaProbs:   map[Pair]float64{NewPair(2, 1): 1},
		TrifectaProbs: map[Triple]float64{},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "K")
	exacta := raw["exacta_probs"].(map[string]any)
	assert.Contains(t, exacta, "1-2")

	var decoded SimulationRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record.ExactaProbs, decoded.ExactaProbs)
	assert.Equal(t, record.WinProbs, decoded.WinProbs)
}

func TestNewSimIDIsDeterministicAndDistinct(t *testing.T) {
	created := time.Date(2024, 5, 26, 9, 0, 0, 0, time.UTC)
	a := NewSimID("R1", "m1", created)
	assert.Equal(t, a, NewSimID("R1", "m1", created))
	assert.NotEqual(t, a, NewSimID("R2", "m1", created))
	assert.NotEqual(t, a, NewSimID("R1", "m2", created))
	assert.NotEqual(t, a, NewSimID("R1", "m1", created.Add(time.Nanosecond)))
}

func TestFavourite(t *testing.T) {
	record := SimulationRecord{WinProbs: map[int]float64{3: 0.4, 1: 0.4, 2: 0.2}}
	id, p := record.Favourite()
	assert.Equal(t, 1, id)
	assert.InDelta(t, 0.4, p, 1e-12)
}

func TestOddsBookSet(t *testing.T) {
	book := NewOddsBook("R1")
	require.NoError(t, book.Set(MarketTypeWin, "3", 4.5))
	require.NoError(t, book.Set(MarketTypeExacta, "5-2", 12))
	require.NoError(t, book.Set(MarketTypeTrifecta, "1-2-3", 80))
	assert.Error(t, book.Set(MarketTypePlace, "x", 2))

	assert.Equal(t, 4.5, book.Win[3])
	assert.Equal(t, 12.0, book.Exacta[NewPair(2, 5)])
	assert.Equal(t, 80.0, book.Trifecta[Triple{1, 2, 3}])
	assert.Equal(t, 3, book.Len())
}

func TestParseMarketType(t *testing.T) {
	m, err := ParseMarketType("place")
	require.NoError(t, err)
	assert.Equal(t, MarketTypePlace, m)
	_, err = ParseMarketType("EW")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBudgetAllocationTotal(t *testing.T) {
	alloc := BudgetAllocation{"R1": 300, "R2": 0, "R3": 700}
	assert.Equal(t, 1000.0, alloc.Total())
}
