package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paddock/internal/allocation"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/models"
	"github.com/yourusername/paddock/internal/repository"
	"github.com/yourusername/paddock/internal/simulation"
)

var raceDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type staticParams struct {
	races []models.RaceParameter
	err   error
}

func (p *staticParams) RaceParameters(ctx context.Context, date time.Time) ([]models.RaceParameter, error) {
	return p.races, p.err
}

func (p *staticParams) Name() string { return "static" }

type staticOdds struct {
	books map[string]models.OddsBook
	err   error
}

func (s *staticOdds) Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error) {
	return s.books, s.err
}

func (s *staticOdds) Name() string { return "static" }

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) Save(ctx context.Context, raceDate time.Time, record *models.SimulationRecord) error {
	return m.Called(record.RaceID).Error(0)
}

func (m *mockRecords) GetByID(ctx context.Context, simID string) (*models.SimulationRecord, error) {
	args := m.Called(simID)
	record, _ := args.Get(0).(*models.SimulationRecord)
	return record, args.Error(1)
}

func (m *mockRecords) GetLatestByRace(ctx context.Context, raceDate time.Time, raceID string) (*models.SimulationRecord, error) {
	args := m.Called(raceID)
	record, _ := args.Get(0).(*models.SimulationRecord)
	return record, args.Error(1)
}

func (m *mockRecords) ListByDate(ctx context.Context, raceDate time.Time) ([]*models.SimulationRecord, error) {
	args := m.Called(raceDate)
	records, _ := args.Get(0).([]*models.SimulationRecord)
	return records, args.Error(1)
}

type mockPlans struct {
	mock.Mock
}

func (m *mockPlans) Save(ctx context.Context, plan *models.AllocationPlan) error {
	return m.Called(plan).Error(0)
}

func (m *mockPlans) GetLatestByDate(ctx context.Context, date time.Time) (*models.AllocationPlan, error) {
	args := m.Called(date)
	plan, _ := args.Get(0).(*models.AllocationPlan)
	return plan, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, plan *models.AllocationPlan) error {
	return m.Called(plan).Error(0)
}

func (m *mockPublisher) Name() string { return "mock" }

func (m *mockPublisher) Close() error { return nil }

func twoRunnerRace(raceID string, strong float64) models.RaceParameter {
	return models.RaceParameter{
		RaceID: raceID,
		Runners: []models.RunnerParameter{
			{RunnerID: 1, Mu: strong, Sigma: 0.1},
			{RunnerID: 2, Mu: 0, Sigma: 0.1},
		},
	}
}

func newRunner(deps Dependencies) *DailyRunner {
	deps.Simulator = simulation.NewSimulator(simulation.Config{Trials: 2000, Workers: 2}, logger.Discard())
	deps.Allocator = allocation.NewAllocator(allocation.DefaultConfig(), logger.Discard())
	return NewDailyRunner(deps, RunnerConfig{Seed: 7, RaceConcurrency: 2}, logger.Discard())
}

func TestSimulateSkipsInvalidRacesAndToleratesPersistenceFailures(t *testing.T) {
	records := new(mockRecords)
	records.On("Save", "R1").Return(nil)
	records.On("Save", "R3").Return(models.NewPersistenceError("save record", errors.New("disk full")))

	invalid := twoRunnerRace("R2", 1)
	invalid.Runners = invalid.Runners[:1]

	runner := newRunner(Dependencies{
		Parameters: &staticParams{races: []models.RaceParameter{
			twoRunnerRace("R3", 1), invalid, twoRunnerRace("R1", 2),
		}},
		Records: records,
	})

	result, err := runner.Simulate(context.Background(), raceDay)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "R1", result.Records[0].RaceID)
	assert.Equal(t, "R3", result.Records[1].RaceID)
	assert.Equal(t, 2000, result.Records[1].K, "unpersisted record is still returned")

	require.Contains(t, result.Rejected, "R2")
	assert.ErrorIs(t, result.Rejected["R2"], models.ErrInvalidInput)

	assert.Equal(t, 3, result.Summary.TotalRaces)
	assert.Equal(t, 2, result.Summary.SimulatedRaces)
	assert.Equal(t, 1, result.Summary.RejectedRaces)
	assert.Equal(t, 1, result.Summary.PersistedRecords)
	assert.Equal(t, 1, result.Summary.PersistFailures)
	assert.Equal(t, 4000, result.Summary.Trials)
	records.AssertExpectations(t)
}

func TestSimulateIsDeterministicAcrossConcurrency(t *testing.T) {
	races := []models.RaceParameter{twoRunnerRace("R1", 0.5), twoRunnerRace("R2", 0.2), twoRunnerRace("R3", 0.9)}

	run := func(concurrency int) []*models.SimulationRecord {
		r := NewDailyRunner(Dependencies{
			Parameters: &staticParams{races: races},
			Simulator:  simulation.NewSimulator(simulation.Config{Trials: 1500}, logger.Discard()),
		}, RunnerConfig{Seed: 11, RaceConcurrency: concurrency}, logger.Discard())
		result, err := r.Simulate(context.Background(), raceDay)
		require.NoError(t, err)
		return result.Records
	}

	serial, parallel := run(1), run(3)
	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].WinProbs, parallel[i].WinProbs)
		assert.Equal(t, serial[i].ExactaProbs, parallel[i].ExactaProbs)
	}
}

func TestSimulateMissingParameters(t *testing.T) {
	runner := newRunner(Dependencies{Parameters: &staticParams{err: models.ErrNotFound}})

	_, err := runner.Simulate(context.Background(), raceDay)
	assert.True(t, IsInputError(err))
}

func TestSimulateCancelledBeforeStart(t *testing.T) {
	runner := newRunner(Dependencies{
		Parameters: &staticParams{races: []models.RaceParameter{twoRunnerRace("R1", 1)}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Simulate(ctx, raceDay)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Records)
}

func TestRunAllocatesStoresAndPublishes(t *testing.T) {
	book := models.NewOddsBook("R1")
	book.Win[1] = 2.0
	book.Win[2] = 1.5

	plans := new(mockPlans)
	plans.On("Save", mock.Anything).Return(nil).Once()
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything).Return(errors.New("broker down")).Once()

	runner := newRunner(Dependencies{
		Parameters: &staticParams{races: []models.RaceParameter{twoRunnerRace("R1", 2), twoRunnerRace("R2", 1)}},
		Odds:       &staticOdds{books: map[string]models.OddsBook{"R1": book}},
		Records:    repository.NewFileSimulationRecordRepository(t.TempDir()),
		Plans:      plans,
		Publisher:  pub,
	})

	result, plan, err := runner.Run(context.Background(), raceDay, 1000)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.NotNil(t, plan, "publishing failures do not discard the plan")

	assert.Equal(t, models.OutcomeAllocated, plan.Outcome)
	assert.Equal(t, 1000.0, plan.Allocations["R1"])
	assert.Equal(t, 0.0, plan.Allocations["R2"])
	assert.Equal(t, 1000.0, plan.Allocated)
	require.NotEmpty(t, plan.Bets)
	assert.Equal(t, "1", plan.Bets[0].Selection)
	plans.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAllocateStoredUsesLatestRecordPerRace(t *testing.T) {
	store := repository.NewFileSimulationRecordRepository(t.TempDir())
	ctx := context.Background()

	stale := &models.SimulationRecord{
		SimID: "stale", RaceID: "R1", CreatedAt: raceDay.Add(time.Hour), K: 100,
		WinProbs: map[int]float64{1: 0.9, 2: 0.1},
	}
	fresh := &models.SimulationRecord{
		SimID: "fresh", RaceID: "R1", CreatedAt: raceDay.Add(2 * time.Hour), K: 100,
		WinProbs: map[int]float64{1: 0.1, 2: 0.9},
	}
	require.NoError(t, store.Save(ctx, raceDay, stale))
	require.NoError(t, store.Save(ctx, raceDay, fresh))

	book := models.NewOddsBook("R1")
	book.Win[1] = 3.0
	book.Win[2] = 3.0

	runner := newRunner(Dependencies{
		Odds:    &staticOdds{books: map[string]models.OddsBook{"R1": book}},
		Records: store,
	})

	plan, err := runner.AllocateStored(ctx, raceDay, 500)
	require.NoError(t, err)
	require.Len(t, plan.Bets, 1)
	assert.Equal(t, "2", plan.Bets[0].Selection)

	_, err = runner.AllocateStored(ctx, raceDay.AddDate(0, 0, 1), 500)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAllocateNoOpportunity(t *testing.T) {
	record := &models.SimulationRecord{SimID: "s", RaceID: "R1", WinProbs: map[int]float64{1: 0.5, 2: 0.5}}
	book := models.NewOddsBook("R1")
	book.Win[1] = 1.8
	book.Win[2] = 1.8

	runner := newRunner(Dependencies{Odds: &staticOdds{books: map[string]models.OddsBook{"R1": book}}})
	plan, err := runner.Allocate(context.Background(), raceDay, []*models.SimulationRecord{record}, 1000)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoOpportunity, plan.Outcome)
	assert.Equal(t, 0.0, plan.Allocations["R1"])
	assert.Equal(t, 1000.0, plan.Unallocated)
}

func TestOddsValidator(t *testing.T) {
	records := []*models.SimulationRecord{{RaceID: "R1", WinProbs: map[int]float64{1: 0.5, 2: 0.5}}}
	book := models.NewOddsBook("R1")
	book.Win[1] = 2
	book.Exacta[models.NewPair(2, 9)] = 20

	warnings := NewOddsValidator(logger.Discard()).Validate(records, map[string]models.OddsBook{
		"R1": book,
		"R7": models.NewOddsBook("R7"),
	})
	assert.Equal(t, []string{
		"race R1 prices runner 9 which is not in the field",
		"odds for race R7 which has no simulation record",
	}, warnings)
}
