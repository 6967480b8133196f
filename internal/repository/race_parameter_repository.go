package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/models"
)

const errScanRunner = "failed to scan runner parameter: %w"

// PostgresRaceParameterRepository implements RaceParameterRepository for PostgreSQL
type PostgresRaceParameterRepository struct {
	db *database.DB
}

// NewPostgresRaceParameterRepository creates a new race parameter repository
func NewPostgresRaceParameterRepository(db *database.DB) RaceParameterRepository {
	return &PostgresRaceParameterRepository{db: db}
}

// SaveRaces replaces the stored parameters of each given race in one transaction
func (r *PostgresRaceParameterRepository) SaveRaces(ctx context.Context, raceDate time.Time, races []models.RaceParameter) error {
	date := dayTime(raceDate)

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, race := range races {
			if _, err := tx.Exec(ctx,
				`DELETE FROM race_parameters WHERE race_date = $1 AND race_id = $2`,
				date, race.RaceID,
			); err != nil {
				return fmt.Errorf("failed to clear race %s: %w", race.RaceID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO race_parameters (race_date, race_id, nu) VALUES ($1, $2, $3)`,
				date, race.RaceID, race.Nu,
			); err != nil {
				return fmt.Errorf("failed to insert race %s: %w", race.RaceID, err)
			}

			batch := &pgx.Batch{}
			for i, runner := range race.Runners {
				batch.Queue(`
					INSERT INTO runner_parameters (race_date, race_id, position, runner_id, mu, sigma)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, date, race.RaceID, i, runner.RunnerID, runner.Mu, runner.Sigma)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to insert runners of race %s: %w", race.RaceID, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.NewPersistenceError("save race parameters", err)
	}
	return nil
}

// GetByDate retrieves all races for the date with runners in their stored order
func (r *PostgresRaceParameterRepository) GetByDate(ctx context.Context, raceDate time.Time) ([]models.RaceParameter, error) {
	query := `
		SELECT rp.race_id, rp.nu, ru.runner_id, ru.mu, ru.sigma
		FROM race_parameters rp
		JOIN runner_parameters ru ON ru.race_date = rp.race_date AND ru.race_id = rp.race_id
		WHERE rp.race_date = $1
		ORDER BY rp.race_id ASC, ru.position ASC
	`

	rows, err := r.db.Query(ctx, query, dayTime(raceDate))
	if err != nil {
		return nil, models.NewPersistenceError("get race parameters", err)
	}
	defer rows.Close()

	var races []models.RaceParameter
	for rows.Next() {
		var (
			raceID string
			nu     float64
			runner models.RunnerParameter
		)
		if err := rows.Scan(&raceID, &nu, &runner.RunnerID, &runner.Mu, &runner.Sigma); err != nil {
			return nil, models.NewPersistenceError("get race parameters", fmt.Errorf(errScanRunner, err))
		}
		if n := len(races); n == 0 || races[n-1].RaceID != raceID {
			races = append(races, models.RaceParameter{RaceID: raceID, Nu: nu})
		}
		last := &races[len(races)-1]
		last.Runners = append(last.Runners, runner)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("get race parameters", err)
	}
	return races, nil
}
