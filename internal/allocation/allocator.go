package allocation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/metrics"
	"github.com/yourusername/paddock/internal/models"
)

const (
	DefaultEVThreshold = 1.0
	DefaultMinBetUnit  = 100.0
)

// Config configures the allocator
type Config struct {
	EVThreshold float64
	MinBetUnit  float64
	Markets     []models.MarketType
}

// DefaultConfig returns the allocator defaults: win market only, EV must exceed 1
// and stakes are whole multiples of 100.
func DefaultConfig() Config {
	return Config{
		EVThreshold: DefaultEVThreshold,
		MinBetUnit:  DefaultMinBetUnit,
		Markets:     []models.MarketType{models.MarketTypeWin},
	}
}

// RaceInput is one race's read-only snapshot for an allocation pass
type RaceInput struct {
	RaceID string
	Record *models.SimulationRecord
	Odds   models.OddsBook
}

// Option customises an Allocator
type Option func(*Allocator)

// WithClock overrides the clock used to stamp plans.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

// Allocator distributes a daily budget across races in proportion to their
// expected log-growth scores
type Allocator struct {
	cfg Config
	log *logger.AllocationLogger
	now func() time.Time
}

// NewAllocator creates an allocator. An empty market list means win only.
func NewAllocator(cfg Config, log *logrus.Logger, opts ...Option) *Allocator {
	if len(cfg.Markets) == 0 {
		cfg.Markets = []models.MarketType{models.MarketTypeWin}
	}
	if log == nil {
		log = logger.Discard()
	}
	a := &Allocator{
		cfg: cfg,
		log: logger.NewAllocationLogger(log),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate scores every race and splits totalBudget across races with a positive
// score. Each race receives floor(budget*score/sum / unit) * unit and its amount is
// then split across the race's accepted candidates. A day without any positive
// score is not an error: the plan has outcome no_opportunity and every race gets 0.
//
// The race score is the sum of its candidates' growth rates, which treats bets in
// the same race as independent. It ranks races for budget; it does not size a
// joint position.
func (a *Allocator) Allocate(date time.Time, races []RaceInput, totalBudget float64) (*models.AllocationPlan, error) {
	if err := a.validate(races, totalBudget); err != nil {
		return nil, fmt.Errorf("allocate %s: %w", date.Format("2006-01-02"), err)
	}

	// Scoring
	scores := make([]models.RaceScore, len(races))
	accepted := make([][]models.BettingCandidate, len(races))
	for i, race := range races {
		scores[i], accepted[i] = a.scoreRace(race)
	}

	plan := &models.AllocationPlan{
		PlanID:      uuid.New(),
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		TotalBudget: totalBudget,
		MinBetUnit:  a.cfg.MinBetUnit,
		Allocations: make(models.BudgetAllocation, len(races)),
		Scores:      scores,
		Bets:        []models.StakedBet{},
		CreatedAt:   a.now().UTC(),
	}
	for _, race := range races {
		plan.Allocations[race.RaceID] = 0
	}

	sum := decimal.Zero
	for _, s := range scores {
		if s.Score > 0 {
			sum = sum.Add(decimal.NewFromFloat(s.Score))
		}
	}

	day := plan.Date.Format("2006-01-02")
	if !sum.IsPositive() {
		plan.Outcome = models.OutcomeNoOpportunity
		plan.Unallocated = totalBudget
		a.log.LogNoOpportunity(day, len(races), totalBudget)
		metrics.RecordAllocation(string(plan.Outcome), 0, totalBudget)
		return plan, nil
	}

	// Allocating
	plan.Outcome = models.OutcomeAllocated
	budget := decimal.NewFromFloat(totalBudget)
	unit := decimal.NewFromFloat(a.cfg.MinBetUnit)
	remaining := budget
	funded := 0

	for i, s := range scores {
		if s.Score <= 0 {
			continue
		}
		share := budget.Mul(decimal.NewFromFloat(s.Score)).Div(sum)
		amount := floorToUnit(share, unit)
		if amount.GreaterThan(remaining) {
			amount = floorToUnit(remaining, unit)
		}
		if !amount.IsPositive() {
			continue
		}
		remaining = remaining.Sub(amount)
		funded++

		plan.Allocations[s.RaceID] = amount.InexactFloat64()
		plan.Bets = append(plan.Bets, splitStakes(accepted[i], amount, unit)...)
	}

	allocated := budget.Sub(remaining)
	plan.Allocated = allocated.InexactFloat64()
	plan.Unallocated = remaining.InexactFloat64()

	a.log.LogAllocationCompleted(day, string(plan.Outcome), len(races), funded,
		totalBudget, plan.Allocated, plan.Unallocated)
	metrics.RecordAllocation(string(plan.Outcome), plan.Allocated, plan.Unallocated)
	return plan, nil
}

func (a *Allocator) validate(races []RaceInput, totalBudget float64) error {
	if math.IsNaN(totalBudget) || math.IsInf(totalBudget, 0) || totalBudget < 0 {
		return models.NewValidationError("invalid_budget", fmt.Sprintf("total budget %v must be a finite non-negative amount", totalBudget))
	}
	if math.IsNaN(a.cfg.MinBetUnit) || math.IsInf(a.cfg.MinBetUnit, 0) || a.cfg.MinBetUnit <= 0 {
		return models.NewValidationError("invalid_min_bet_unit", fmt.Sprintf("minimum bet unit %v must be positive", a.cfg.MinBetUnit))
	}

	seen := make(map[string]struct{}, len(races))
	for _, race := range races {
		if race.RaceID == "" {
			return models.NewValidationError("race_id_required", "race id is required")
		}
		if _, dup := seen[race.RaceID]; dup {
			return models.NewValidationError("duplicate_race", fmt.Sprintf("race %s appears more than once", race.RaceID))
		}
		seen[race.RaceID] = struct{}{}

		if race.Record == nil {
			return models.NewValidationError("missing_record", fmt.Sprintf("race %s has no simulation record", race.RaceID))
		}
		if race.Record.RaceID != race.RaceID {
			return models.NewValidationError("race_mismatch",
				fmt.Sprintf("race %s paired with record for race %s", race.RaceID, race.Record.RaceID))
		}
		if race.Odds.RaceID != "" && race.Odds.RaceID != race.RaceID {
			return models.NewValidationError("race_mismatch",
				fmt.Sprintf("race %s paired with odds for race %s", race.RaceID, race.Odds.RaceID))
		}
	}
	return nil
}

func (a *Allocator) scoreRace(race RaceInput) (models.RaceScore, []models.BettingCandidate) {
	invalid := func(market models.MarketType, selection string, odds float64) {
		a.log.LogInvalidOdds(race.RaceID, string(market), selection, odds)
	}

	var accepted []models.BettingCandidate
	score := 0.0
	for _, c := range buildCandidates(race.Record, race.Odds, a.cfg.Markets, invalid) {
		result, ok := Score(c.Probability, c.Odds, a.cfg.EVThreshold)
		metrics.RecordCandidate(string(c.Market), ok)
		if !ok {
			continue
		}
		c.KellyFraction = result.Fraction
		c.GrowthRate = result.GrowthRate
		accepted = append(accepted, c)
		score += result.GrowthRate

		a.log.LogCandidateAccepted(c.RaceID, string(c.Market), c.Selection, c.Probability, c.Odds,
			c.ExpectedValue, c.KellyFraction, c.GrowthRate)
	}

	a.log.LogRaceScore(race.RaceID, score, len(accepted))
	metrics.UpdateRaceScore(race.RaceID, score)
	return models.RaceScore{RaceID: race.RaceID, Score: score, Candidates: len(accepted)}, accepted
}

func floorToUnit(amount, unit decimal.Decimal) decimal.Decimal {
	return amount.Div(unit).Floor().Mul(unit)
}

// splitStakes divides a race amount (a whole number of units) across its candidates
// in proportion to their Kelly fractions. Stakes are floored to the unit and the
// leftover units go to the largest remainders, so the stakes add up to the amount.
func splitStakes(candidates []models.BettingCandidate, amount, unit decimal.Decimal) []models.StakedBet {
	if len(candidates) == 0 {
		return nil
	}

	totalFraction := decimal.Zero
	for _, c := range candidates {
		totalFraction = totalFraction.Add(decimal.NewFromFloat(c.KellyFraction))
	}

	units := amount.Div(unit).Floor()
	whole := make([]decimal.Decimal, len(candidates))
	rest := make([]decimal.Decimal, len(candidates))
	assigned := decimal.Zero
	for i, c := range candidates {
		exact := units.Mul(decimal.NewFromFloat(c.KellyFraction)).Div(totalFraction)
		whole[i] = exact.Floor()
		rest[i] = exact.Sub(whole[i])
		assigned = assigned.Add(whole[i])
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return rest[order[x]].GreaterThan(rest[order[y]])
	})
	leftover := int(units.Sub(assigned).IntPart())
	for k := 0; k < leftover && k < len(order); k++ {
		whole[order[k]] = whole[order[k]].Add(decimal.NewFromInt(1))
	}

	bets := make([]models.StakedBet, 0, len(candidates))
	for i, c := range candidates {
		if !whole[i].IsPositive() {
			continue
		}
		bets = append(bets, models.StakedBet{
			BettingCandidate: c,
			Stake:            whole[i].Mul(unit).InexactFloat64(),
		})
	}
	return bets
}
