package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/models"
)

var raceDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newRecord(raceID string, createdAt time.Time) *models.SimulationRecord {
	return &models.SimulationRecord{
		SimID:     models.NewSimID(raceID, "m1", createdAt),
		RaceID:    raceID,
		ModelID:   "m1",
		CreatedAt: createdAt,
		K:         1000,
		WinProbs:  map[int]float64{1: 0.6, 2: 0.3, 3: 0.1},
		PlaceProbs: map[int]float64{
			1: 1, 2: 1, 3: 1,
		},
		ExactaProbs: map[models.Pair]float64{
			models.NewPair(1, 2): 0.5,
			models.NewPair(1, 3): 0.3,
			models.NewPair(2, 3): 0.2,
		},
		TrifectaProbs: map[models.Triple]float64{
			{First: 1, Second: 2, Third: 3}: 0.4,
			{First: 2, Second: 1, Third: 3}: 0.2,
		},
	}
}

func newPlan(createdAt time.Time) *models.AllocationPlan {
	return &models.AllocationPlan{
		PlanID:      uuid.New(),
		Date:        raceDay,
		TotalBudget: 1000,
		MinBetUnit:  100,
		Outcome:     models.OutcomeAllocated,
		Allocations: models.BudgetAllocation{"R1": 1000},
		Allocated:   1000,
		CreatedAt:   createdAt,
	}
}

type backend struct {
	name    string
	records SimulationRecordRepository
	plans   AllocationRepository
}

func backends(t *testing.T) []backend {
	t.Helper()

	dir := t.TempDir()
	files := NewFileRepositories(dir)

	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "paddock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlite, err := NewSQLiteRepositories(db)
	require.NoError(t, err)

	return []backend{
		{name: "file", records: files.Records, plans: files.Plans},
		{name: "sqlite", records: sqlite.Records, plans: sqlite.Plans},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			record := newRecord("R1", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
			require.NoError(t, b.records.Save(ctx, raceDay, record))

			got, err := b.records.GetByID(ctx, record.SimID)
			require.NoError(t, err)
			assert.Equal(t, record.RaceID, got.RaceID)
			assert.Equal(t, record.K, got.K)
			assert.True(t, record.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, record.WinProbs, got.WinProbs)
			assert.Equal(t, record.ExactaProbs, got.ExactaProbs)
			assert.Equal(t, record.TrifectaProbs, got.TrifectaProbs)
		})
	}
}

func TestRecordSaveIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			record := newRecord("R1", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
			require.NoError(t, b.records.Save(ctx, raceDay, record))

			changed := *record
			changed.K = 5
			err := b.records.Save(ctx, raceDay, &changed)
			assert.ErrorIs(t, err, models.ErrDuplicateKey)

			got, err := b.records.GetByID(ctx, record.SimID)
			require.NoError(t, err)
			assert.Equal(t, 1000, got.K, "existing record must not be modified")
		})
	}
}

func TestRecordLatestAndList(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			early := newRecord("R1", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
			late := newRecord("R1", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
			other := newRecord("R2", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
			for _, r := range []*models.SimulationRecord{late, other, early} {
				require.NoError(t, b.records.Save(ctx, raceDay, r))
			}

			latest, err := b.records.GetLatestByRace(ctx, raceDay, "R1")
			require.NoError(t, err)
			assert.Equal(t, late.SimID, latest.SimID)

			all, err := b.records.ListByDate(ctx, raceDay)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, early.SimID, all[0].SimID)
			assert.Equal(t, late.SimID, all[1].SimID)
			assert.Equal(t, other.SimID, all[2].SimID)

			perRace := LatestPerRace(all)
			require.Len(t, perRace, 2)
			assert.Equal(t, late.SimID, perRace[0].SimID)
			assert.Equal(t, other.SimID, perRace[1].SimID)

			none, err := b.records.ListByDate(ctx, raceDay.AddDate(0, 0, 1))
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestRecordNotFound(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			_, err := b.records.GetByID(ctx, uuid.NewString())
			assert.ErrorIs(t, err, models.ErrNotFound)

			_, err = b.records.GetLatestByRace(ctx, raceDay, "R9")
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestPlanLatestByDate(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			_, err := b.plans.GetLatestByDate(ctx, raceDay)
			assert.ErrorIs(t, err, models.ErrNotFound)

			first := newPlan(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
			second := newPlan(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC))
			second.Outcome = models.OutcomeNoOpportunity
			require.NoError(t, b.plans.Save(ctx, second))
			require.NoError(t, b.plans.Save(ctx, first))

			assert.ErrorIs(t, b.plans.Save(ctx, first), models.ErrDuplicateKey)

			got, err := b.plans.GetLatestByDate(ctx, raceDay)
			require.NoError(t, err)
			assert.Equal(t, second.PlanID, got.PlanID)
			assert.Equal(t, models.OutcomeNoOpportunity, got.Outcome)
		})
	}
}

func TestFileRepositoryLayout(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileSimulationRecordRepository(dir)
	record := newRecord("R1", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Save(context.Background(), raceDay, record))

	_, err := os.Stat(filepath.Join(dir, "2024-06-01", "R1", record.SimID+".json"))
	assert.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(dir, "2024-06-01", "R1", ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileRepositoryRejectsUnsafeIDs(t *testing.T) {
	repo := NewFileSimulationRecordRepository(t.TempDir())

	for _, raceID := range []string{"../escape", "a/b", "..", ""} {
		record := newRecord("R1", time.Now())
		record.RaceID = raceID
		err := repo.Save(context.Background(), raceDay, record)
		assert.ErrorIs(t, err, models.ErrInvalidInput, raceID)
	}
}

func TestFileRepositoryReportsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileSimulationRecordRepository(dir)

	path := filepath.Join(dir, "2024-06-01", "R1", "broken.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := repo.ListByDate(context.Background(), raceDay)
	var perr *models.PersistenceError
	assert.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestNewRepositoriesRequireConnection(t *testing.T) {
	_, err := NewPostgresRepositories(nil)
	assert.Error(t, err)

	_, err = NewSQLiteRepositories(nil)
	assert.Error(t, err)
}

func TestPostgresRepositories(t *testing.T) {
	db := database.SetupTestDB(t)
	repos, err := NewPostgresRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := newRecord(uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repos.Records.Save(ctx, raceDay, record))
	assert.ErrorIs(t, repos.Records.Save(ctx, raceDay, record), models.ErrDuplicateKey)

	got, err := repos.Records.GetLatestByRace(ctx, raceDay, record.RaceID)
	require.NoError(t, err)
	assert.Equal(t, record.SimID, got.SimID)

	races := []models.RaceParameter{{
		RaceID: record.RaceID,
		Nu:     0.5,
		Runners: []models.RunnerParameter{
			{RunnerID: 7, Mu: 1, Sigma: 0.2},
			{RunnerID: 3, Mu: 0.5, Sigma: 0.1},
		},
	}}
	require.NoError(t, repos.Parameters.SaveRaces(ctx, raceDay, races))
	require.NoError(t, repos.Parameters.SaveRaces(ctx, raceDay, races))

	stored, err := repos.Parameters.GetByDate(ctx, raceDay)
	require.NoError(t, err)
	for _, race := range stored {
		if race.RaceID == record.RaceID {
			assert.Equal(t, []int{7, 3}, race.RunnerIDs())
		}
	}
}
