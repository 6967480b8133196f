package models

import (
	"fmt"
	"math"
)

// MaxRunners bounds the field size a single simulation accepts. Trifecta counters
// are dense n³ arrays per worker.
const MaxRunners = 64

// RunnerParameter is the externally produced performance estimate of one runner
type RunnerParameter struct {
	RunnerID int     `db:"runner_id" json:"runner_id"`
	Mu       float64 `db:"mu" json:"mu"`
	Sigma    float64 `db:"sigma" json:"sigma"`
}

// RaceParameter is the simulation input for one race
type RaceParameter struct {
	RaceID  string            `db:"race_id" json:"race_id"`
	Nu      float64           `db:"nu" json:"nu"`
	Runners []RunnerParameter `json:"runners"`
}

// Validate checks the race is well formed. Negative or non-finite variances are
// rejected rather than clamped.
func (r *RaceParameter) Validate() error {
	if r.RaceID == "" {
		return NewValidationError("race_id_required", "race id is required")
	}
	if len(r.Runners) < 2 {
		return NewValidationError("too_few_runners",
			fmt.Sprintf("race %s has %d runners, need at least 2", r.RaceID, len(r.Runners)))
	}
	if len(r.Runners) > MaxRunners {
		return NewValidationError("too_many_runners",
			fmt.Sprintf("race %s has %d runners, limit is %d", r.RaceID, len(r.Runners), MaxRunners))
	}
	if math.IsNaN(r.Nu) || math.IsInf(r.Nu, 0) || r.Nu < 0 {
		return NewValidationError("invalid_nu", fmt.Sprintf("race %s has invalid nu %v", r.RaceID, r.Nu))
	}

	seen := make(map[int]struct{}, len(r.Runners))
	for _, runner := range r.Runners {
		if _, dup := seen[runner.RunnerID]; dup {
			return NewValidationError("duplicate_runner",
				fmt.Sprintf("race %s lists runner %d more than once", r.RaceID, runner.RunnerID))
		}
		seen[runner.RunnerID] = struct{}{}

		if math.IsNaN(runner.Mu) || math.IsInf(runner.Mu, 0) {
			return NewValidationError("invalid_mu",
				fmt.Sprintf("race %s runner %d has invalid mu %v", r.RaceID, runner.RunnerID, runner.Mu))
		}
		if math.IsNaN(runner.Sigma) || math.IsInf(runner.Sigma, 0) || runner.Sigma < 0 {
			return NewValidationError("invalid_sigma",
				fmt.Sprintf("race %s runner %d has invalid sigma %v", r.RaceID, runner.RunnerID, runner.Sigma))
		}
	}
	return nil
}

// FieldSize returns the number of runners
func (r *RaceParameter) FieldSize() int {
	return len(r.Runners)
}

// RunnerIDs returns runner ids in input order
func (r *RaceParameter) RunnerIDs() []int {
	ids := make([]int, len(r.Runners))
	for i, runner := range r.Runners {
		ids[i] = runner.RunnerID
	}
	return ids
}
