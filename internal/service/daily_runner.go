// Package service orchestrates a race day: simulate every race, persist the
// records, then allocate the bankroll and publish the plan.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/paddock/internal/allocation"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/metrics"
	"github.com/yourusername/paddock/internal/models"
	"github.com/yourusername/paddock/internal/odds"
	"github.com/yourusername/paddock/internal/params"
	"github.com/yourusername/paddock/internal/publisher"
	"github.com/yourusername/paddock/internal/repository"
	"github.com/yourusername/paddock/internal/simulation"
)

const dateLayout = "2006-01-02"

// RunnerConfig holds the per-run settings of a DailyRunner
type RunnerConfig struct {
	Trials          int
	Seed            int64
	RaceConcurrency int
	Backend         string
}

// Dependencies are the collaborators of a DailyRunner. Plans and Publisher may be
// nil; Odds is only needed for allocation.
type Dependencies struct {
	Parameters params.Provider
	Odds       odds.Source
	Records    repository.SimulationRecordRepository
	Plans      repository.AllocationRepository
	Publisher  publisher.Publisher
	Simulator  *simulation.Simulator
	Allocator  *allocation.Allocator
}

// SimulationResult is the outcome of simulating a race day
type SimulationResult struct {
	Date     time.Time
	Records  []*models.SimulationRecord
	Rejected map[string]error
	Summary  *RunSummary
}

// DailyRunner runs the simulate and allocate passes of a race day
type DailyRunner struct {
	deps      Dependencies
	cfg       RunnerConfig
	simLog    *logger.SimulationLogger
	audit     *logger.AuditLogger
	validator *OddsValidator
	logger    *logrus.Entry
}

// NewDailyRunner creates a runner
func NewDailyRunner(deps Dependencies, cfg RunnerConfig, log *logrus.Logger) *DailyRunner {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.RaceConcurrency <= 0 {
		cfg.RaceConcurrency = 1
	}
	if cfg.Trials <= 0 && deps.Simulator != nil {
		cfg.Trials = deps.Simulator.Config().Trials
	}
	if cfg.Backend == "" {
		cfg.Backend = "file"
	}
	return &DailyRunner{
		deps:      deps,
		cfg:       cfg,
		simLog:    logger.NewSimulationLogger(log),
		audit:     logger.NewAuditLogger(log),
		validator: NewOddsValidator(log),
		logger:    log.WithField("component", "daily_runner"),
	}
}

// Simulate reads the day's parameters and simulates every race with bounded
// parallelism. A malformed race is logged and skipped; a record that fails to
// persist is logged and still returned. Cancelling ctx stops new races from
// starting while races already running complete.
func (r *DailyRunner) Simulate(ctx context.Context, date time.Time) (*SimulationResult, error) {
	races, err := r.deps.Parameters.RaceParameters(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load race parameters for %s: %w", date.Format(dateLayout), err)
	}

	summary := NewRunSummary()
	summary.TotalRaces = len(races)
	result := &SimulationResult{
		Date:     date,
		Rejected: make(map[string]error),
		Summary:  summary,
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.cfg.RaceConcurrency)

	for _, race := range races {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, err := r.deps.Simulator.Simulate(race, r.cfg.Trials, r.cfg.Seed)
			if err != nil {
				r.simLog.LogRaceRejected(race.RaceID, err)
				summary.RecordRejected()
				mu.Lock()
				result.Rejected[race.RaceID] = err
				mu.Unlock()
				return nil
			}
			summary.RecordSimulated(record.K)
			r.persist(ctx, date, record, summary)

			mu.Lock()
			result.Records = append(result.Records, record)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; per-race failures are collected above
	_ = g.Wait()

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].RaceID < result.Records[j].RaceID
	})
	summary.Finish()
	r.logger.WithField("date", date.Format(dateLayout)).Info(summary.String())

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("simulation of %s interrupted: %w", date.Format(dateLayout), err)
	}
	return result, nil
}

func (r *DailyRunner) persist(ctx context.Context, date time.Time, record *models.SimulationRecord, summary *RunSummary) {
	if r.deps.Records == nil {
		return
	}
	if err := r.deps.Records.Save(ctx, date, record); err != nil {
		summary.RecordPersistFailure()
		metrics.RecordPersistenceFailure("simulation_record")
		r.audit.LogPersistenceFailure("simulation_record", record.SimID, err)
		return
	}
	summary.RecordPersisted()
	metrics.RecordRecordSaved()
	r.audit.LogRecordPersisted(record.SimID, record.RaceID, r.cfg.Backend)
}

// Allocate joins records with the day's odds, allocates bankroll and stores and
// publishes the plan. Storing and publishing failures are logged; the plan is
// still returned.
func (r *DailyRunner) Allocate(ctx context.Context, date time.Time, records []*models.SimulationRecord, bankroll float64) (*models.AllocationPlan, error) {
	if r.deps.Odds == nil {
		return nil, fmt.Errorf("no odds source configured")
	}
	books, err := r.deps.Odds.Odds(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load odds for %s: %w", date.Format(dateLayout), err)
	}
	r.validator.Validate(records, books)

	inputs := make([]allocation.RaceInput, 0, len(records))
	for _, record := range records {
		book, ok := books[record.RaceID]
		if !ok {
			book = models.NewOddsBook(record.RaceID)
		}
		inputs = append(inputs, allocation.RaceInput{RaceID: record.RaceID, Record: record, Odds: book})
	}

	plan, err := r.deps.Allocator.Allocate(date, inputs, bankroll)
	if err != nil {
		return nil, err
	}

	if r.deps.Plans != nil {
		if err := r.deps.Plans.Save(ctx, plan); err != nil {
			metrics.RecordPersistenceFailure("allocation_plan")
			r.audit.LogPersistenceFailure("allocation_plan", plan.PlanID.String(), err)
		}
	}

	if r.deps.Publisher != nil {
		err := r.deps.Publisher.Publish(ctx, plan)
		metrics.RecordPlanPublished(r.deps.Publisher.Name(), err)
		if err != nil {
			r.audit.LogPersistenceFailure("published_plan", plan.PlanID.String(), err)
		} else {
			r.audit.LogPlanPublished(plan.PlanID.String(), r.deps.Publisher.Name(), plan.Date, plan.Allocated, len(plan.Bets))
		}
	}
	return plan, nil
}

// AllocateStored allocates from the latest stored record of every race of the day
func (r *DailyRunner) AllocateStored(ctx context.Context, date time.Time, bankroll float64) (*models.AllocationPlan, error) {
	if r.deps.Records == nil {
		return nil, fmt.Errorf("no record store configured")
	}
	records, err := r.deps.Records.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for %s: %w", date.Format(dateLayout), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no simulation records for %s: %w", date.Format(dateLayout), models.ErrNotFound)
	}
	return r.Allocate(ctx, date, repository.LatestPerRace(records), bankroll)
}

// Run simulates the day and allocates bankroll across the fresh records
func (r *DailyRunner) Run(ctx context.Context, date time.Time, bankroll float64) (*SimulationResult, *models.AllocationPlan, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDailyRunDuration(time.Since(start).Seconds())
	}()

	result, err := r.Simulate(ctx, date)
	if err != nil {
		return result, nil, err
	}
	plan, err := r.Allocate(ctx, date, result.Records, bankroll)
	if err != nil {
		return result, nil, err
	}
	return result, plan, nil
}

// IsInputError reports whether err stems from missing or malformed input rather
// than an infrastructure failure
func IsInputError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrNotFound)
}
