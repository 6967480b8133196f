package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/paddock/internal/models"
)

// sortableTime keeps lexical order equal to chronological order
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteSimulationRecordRepository implements SimulationRecordRepository on an
// embedded SQLite database
type SQLiteSimulationRecordRepository struct {
	db *sql.DB
}

// NewSQLiteSimulationRecordRepository creates a SQLite record repository
func NewSQLiteSimulationRecordRepository(db *sql.DB) SimulationRecordRepository {
	return &SQLiteSimulationRecordRepository{db: db}
}

// Save inserts the record; an existing sim id is a duplicate
func (r *SQLiteSimulationRecordRepository) Save(ctx context.Context, raceDate time.Time, record *models.SimulationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return models.NewPersistenceError("encode record", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.NewPersistenceError("save record", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO simulation_records (sim_id, race_id, race_date, model_id, created_at, trials, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.SimID, record.RaceID, day(raceDate), record.ModelID,
		record.CreatedAt.UTC().Format(sortableTime), record.K, string(payload))
	if err != nil {
		return models.NewPersistenceError("save record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.NewPersistenceError("save record", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s: %w", record.SimID, models.ErrDuplicateKey)
	}
	if err := tx.Commit(); err != nil {
		return models.NewPersistenceError("save record", err)
	}
	return nil
}

// GetByID retrieves a record by sim id
func (r *SQLiteSimulationRecordRepository) GetByID(ctx context.Context, simID string) (*models.SimulationRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM simulation_records WHERE sim_id = ?`, simID)
	return scanSQLiteRecord(row)
}

// GetLatestByRace retrieves the newest record for a race on the date
func (r *SQLiteSimulationRecordRepository) GetLatestByRace(ctx context.Context, raceDate time.Time, raceID string) (*models.SimulationRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT payload FROM simulation_records
		WHERE race_date = ? AND race_id = ?
		ORDER BY created_at DESC, sim_id DESC
		LIMIT 1
	`, day(raceDate), raceID)
	return scanSQLiteRecord(row)
}

// ListByDate retrieves every record for the date ordered by race and creation time
func (r *SQLiteSimulationRecordRepository) ListByDate(ctx context.Context, raceDate time.Time) ([]*models.SimulationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM simulation_records
		WHERE race_date = ?
		ORDER BY race_id ASC, created_at ASC
	`, day(raceDate))
	if err != nil {
		return nil, models.NewPersistenceError("list records", err)
	}
	defer rows.Close()

	var records []*models.SimulationRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, models.NewPersistenceError("list records", fmt.Errorf(errScanRecord, err))
		}
		record, err := decodeRecord([]byte(payload))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("list records", err)
	}
	return records, nil
}

func scanSQLiteRecord(row *sql.Row) (*models.SimulationRecord, error) {
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewPersistenceError("get record", fmt.Errorf(errScanRecord, err))
	}
	return decodeRecord([]byte(payload))
}

// SQLiteAllocationRepository implements AllocationRepository on SQLite
type SQLiteAllocationRepository struct {
	db *sql.DB
}

// NewSQLiteAllocationRepository creates a SQLite plan repository
func NewSQLiteAllocationRepository(db *sql.DB) AllocationRepository {
	return &SQLiteAllocationRepository{db: db}
}

// Save inserts a plan
func (r *SQLiteAllocationRepository) Save(ctx context.Context, plan *models.AllocationPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return models.NewPersistenceError("encode plan", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO allocation_plans (plan_id, plan_date, outcome, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`, plan.PlanID.String(), day(plan.Date), string(plan.Outcome),
		plan.CreatedAt.UTC().Format(sortableTime), string(payload))
	if err != nil {
		return models.NewPersistenceError("save plan", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.NewPersistenceError("save plan", err)
	}
	if affected == 0 {
		return fmt.Errorf("plan %s: %w", plan.PlanID, models.ErrDuplicateKey)
	}
	return nil
}

// GetLatestByDate retrieves the most recently created plan for the date
func (r *SQLiteAllocationRepository) GetLatestByDate(ctx context.Context, date time.Time) (*models.AllocationPlan, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM allocation_plans
		WHERE plan_date = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, day(date)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewPersistenceError("get plan", err)
	}

	var plan models.AllocationPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, models.NewPersistenceError("decode plan", err)
	}
	return &plan, nil
}
