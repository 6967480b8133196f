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

const errScanRecord = "failed to scan simulation record: %w"

// PostgresSimulationRecordRepository implements SimulationRecordRepository for PostgreSQL
type PostgresSimulationRecordRepository struct {
	db *database.DB
}

// NewPostgresSimulationRecordRepository creates a new record repository
func NewPostgresSimulationRecordRepository(db *database.DB) SimulationRecordRepository {
	return &PostgresSimulationRecordRepository{db: db}
}

// Save inserts the record in a single transaction; an existing sim id is a duplicate
func (r *PostgresSimulationRecordRepository) Save(ctx context.Context, raceDate time.Time, record *models.SimulationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return models.NewPersistenceError("encode record", err)
	}

	query := `
		INSERT INTO simulation_records (sim_id, race_id, race_date, model_id, created_at, trials, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sim_id) DO NOTHING
	`

	var inserted bool
	err = r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			record.SimID, record.RaceID, dayTime(raceDate), record.ModelID,
			record.CreatedAt, record.K, payload,
		)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return models.NewPersistenceError("save record", err)
	}
	if !inserted {
		return fmt.Errorf("record %s: %w", record.SimID, models.ErrDuplicateKey)
	}
	return nil
}

// GetByID retrieves a record by sim id
func (r *PostgresSimulationRecordRepository) GetByID(ctx context.Context, simID string) (*models.SimulationRecord, error) {
	query := `SELECT payload FROM simulation_records WHERE sim_id = $1`
	return scanRecordRow(r.db.QueryRow(ctx, query, simID))
}

// GetLatestByRace retrieves the newest record for a race on the date
func (r *PostgresSimulationRecordRepository) GetLatestByRace(ctx context.Context, raceDate time.Time, raceID string) (*models.SimulationRecord, error) {
	query := `
		SELECT payload FROM simulation_records
		WHERE race_date = $1 AND race_id = $2
		ORDER BY created_at DESC, sim_id DESC
		LIMIT 1
	`
	return scanRecordRow(r.db.QueryRow(ctx, query, dayTime(raceDate), raceID))
}

// ListByDate retrieves every record for the date ordered by race and creation time
func (r *PostgresSimulationRecordRepository) ListByDate(ctx context.Context, raceDate time.Time) ([]*models.SimulationRecord, error) {
	query := `
		SELECT payload FROM simulation_records
		WHERE race_date = $1
		ORDER BY race_id ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, dayTime(raceDate))
	if err != nil {
		return nil, models.NewPersistenceError("list records", err)
	}
	defer rows.Close()

	var records []*models.SimulationRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, models.NewPersistenceError("list records", fmt.Errorf(errScanRecord, err))
		}
		record, err := decodeRecord(payload)
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

func scanRecordRow(row pgx.Row) (*models.SimulationRecord, error) {
	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewPersistenceError("get record", fmt.Errorf(errScanRecord, err))
	}
	return decodeRecord(payload)
}

func decodeRecord(payload []byte) (*models.SimulationRecord, error) {
	var record models.SimulationRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, models.NewPersistenceError("decode record", err)
	}
	return &record, nil
}
