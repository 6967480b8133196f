package repository

import (
	"context"
	"time"

	"github.com/yourusername/paddock/internal/models"
)

// SimulationRecordRepository stores immutable simulation records. Save is
// write-once: saving an existing sim id fails with models.ErrDuplicateKey and
// storage failures wrap models.ErrPersistence.
type SimulationRecordRepository interface {
	Save(ctx context.Context, raceDate time.Time, record *models.SimulationRecord) error
	GetByID(ctx context.Context, simID string) (*models.SimulationRecord, error)
	GetLatestByRace(ctx context.Context, raceDate time.Time, raceID string) (*models.SimulationRecord, error)
	ListByDate(ctx context.Context, raceDate time.Time) ([]*models.SimulationRecord, error)
}

// AllocationRepository stores finished allocation plans
type AllocationRepository interface {
	Save(ctx context.Context, plan *models.AllocationPlan) error
	GetLatestByDate(ctx context.Context, date time.Time) (*models.AllocationPlan, error)
}

// RaceParameterRepository stores runner parameters produced by the model service
type RaceParameterRepository interface {
	SaveRaces(ctx context.Context, raceDate time.Time, races []models.RaceParameter) error
	GetByDate(ctx context.Context, raceDate time.Time) ([]models.RaceParameter, error)
}
