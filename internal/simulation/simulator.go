// Package simulation turns runner performance estimates into finish-order
// probabilities by Monte Carlo sampling of a Plackett-Luce ranking model.
package simulation

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/metrics"
	"github.com/yourusername/paddock/internal/models"
)

const (
	DefaultTrials       = 10000
	DefaultChunkSize    = 1024
	DefaultTrifectaTopN = 20
)

// Config configures the simulator
type Config struct {
	Trials       int
	Workers      int
	ChunkSize    int
	TrifectaTopN int
	ModelID      string
}

// DefaultConfig returns the simulator defaults
func DefaultConfig() Config {
	return Config{
		Trials:       DefaultTrials,
		Workers:      runtime.NumCPU(),
		ChunkSize:    DefaultChunkSize,
		TrifectaTopN: DefaultTrifectaTopN,
		ModelID:      "default",
	}
}

// Option customises a Simulator
type Option func(*Simulator)

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

// Simulator runs race simulations. It holds no per-run state and is safe for
// concurrent use.
type Simulator struct {
	cfg Config
	log *logger.SimulationLogger
	now func() time.Time
}

// NewSimulator creates a simulator, filling zero config values with defaults
func NewSimulator(cfg Config, log *logrus.Logger, opts ...Option) *Simulator {
	if cfg.Trials <= 0 {
		cfg.Trials = DefaultTrials
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.TrifectaTopN <= 0 {
		cfg.TrifectaTopN = DefaultTrifectaTopN
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &Simulator{
		cfg: cfg,
		log: logger.NewSimulationLogger(log),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration
func (s *Simulator) Config() Config {
	return s.cfg
}

// Simulate runs trials independent finish orders for the race and aggregates them
// into a SimulationRecord. The result depends only on (race, trials, seed), never on
// the number of workers. Malformed input returns an error wrapping
// models.ErrInvalidInput and no record.
func (s *Simulator) Simulate(race models.RaceParameter, trials int, seed int64) (*models.SimulationRecord, error) {
	start := time.Now()

	if err := race.Validate(); err != nil {
		metrics.RecordSimulation("invalid_input", 0, 0)
		return nil, fmt.Errorf("simulate race %q: %w", race.RaceID, err)
	}
	if trials < 1 {
		metrics.RecordSimulation("invalid_input", 0, 0)
		return nil, fmt.Errorf("simulate race %q: %w", race.RaceID,
			models.NewValidationError("invalid_trials", fmt.Sprintf("trial count %d must be at least 1", trials)))
	}

	chunks := (trials + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize
	workers := min(s.cfg.Workers, chunks)
	s.log.LogSimulationStarted(race.RaceID, race.FieldSize(), trials, workers)

	total := s.run(&race, trials, seed, chunks, workers)

	win, place, exacta, trifecta := total.probabilities(race.RunnerIDs(), s.cfg.TrifectaTopN)
	createdAt := s.now().UTC()
	record := &models.SimulationRecord{
		SimID:         models.NewSimID(race.RaceID, s.cfg.ModelID, createdAt),
		RaceID:        race.RaceID,
		ModelID:       s.cfg.ModelID,
		CreatedAt:     createdAt,
		K:             trials,
		WinProbs:      win,
		PlaceProbs:    place,
		ExactaProbs:   exacta,
		TrifectaProbs: trifecta,
	}

	elapsed := time.Since(start)
	metrics.RecordSimulation("success", trials, elapsed.Seconds())
	metrics.RecordDegenerateDraws(total.degenerate)
	s.log.LogDegenerateDraws(race.RaceID, total.degenerate)

	favourite, favouriteProb := record.Favourite()
	s.log.LogSimulationCompleted(race.RaceID, record.SimID, trials, favourite, favouriteProb,
		float64(elapsed.Microseconds())/1000)

	return record, nil
}

// run fans chunks out to workers. Each worker pulls the next unclaimed chunk, seeds
// the chunk's own stream, and counts into a private tally; tallies are summed once
// every worker is done.
func (s *Simulator) run(race *models.RaceParameter, trials int, seed int64, chunks, workers int) *tally {
	n := race.FieldSize()
	tallies := make([]*tally, workers)
	var next atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			local := newTally(n)
			smp := newSampler(race)
			for {
				c := int(next.Add(1) - 1)
				if c >= chunks {
					break
				}
				rng := chunkRNG(seed, race.RaceID, uint64(c))
				from := c * s.cfg.ChunkSize
				to := min(from+s.cfg.ChunkSize, trials)
				for t := from; t < to; t++ {
					local.add(smp.draw(rng))
				}
			}
			local.degenerate = smp.degenerate
			tallies[w] = local
		}(w)
	}
	wg.Wait()

	total := newTally(n)
	for _, t := range tallies {
		total.merge(t)
	}
	return total
}
