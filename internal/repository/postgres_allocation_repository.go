package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/models"
)

// PostgresAllocationRepository implements AllocationRepository for PostgreSQL
type PostgresAllocationRepository struct {
	db *database.DB
}

// NewPostgresAllocationRepository creates a new plan repository
func NewPostgresAllocationRepository(db *database.DB) AllocationRepository {
	return &PostgresAllocationRepository{db: db}
}

// Save inserts a plan
func (r *PostgresAllocationRepository) Save(ctx context.Context, plan *models.AllocationPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return models.NewPersistenceError("encode plan", err)
	}

	query := `
		INSERT INTO allocation_plans (plan_id, plan_date, outcome, total_budget, allocated, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plan_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		plan.PlanID, dayTime(plan.Date), string(plan.Outcome),
		plan.TotalBudget, plan.Allocated, plan.CreatedAt, payload,
	)
	if err != nil {
		return models.NewPersistenceError("save plan", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("plan %s: %w", plan.PlanID, models.ErrDuplicateKey)
	}
	return nil
}

// GetLatestByDate retrieves the most recently created plan for the date
func (r *PostgresAllocationRepository) GetLatestByDate(ctx context.Context, date time.Time) (*models.AllocationPlan, error) {
	query := `
		SELECT payload FROM allocation_plans
		WHERE plan_date = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.db.QueryRow(ctx, query, dayTime(date)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewPersistenceError("get plan", err)
	}

	var plan models.AllocationPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, models.NewPersistenceError("decode plan", err)
	}
	return &plan, nil
}
