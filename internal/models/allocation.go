package models

import (
	"time"

	"github.com/google/uuid"
)

// AllocationOutcome is the terminal state of a daily allocation pass
type AllocationOutcome string

const (
	OutcomeAllocated     AllocationOutcome = "allocated"
	OutcomeNoOpportunity AllocationOutcome = "no_opportunity"
)

// BettingCandidate is one priced selection considered during an allocation pass
type BettingCandidate struct {
	RaceID        string     `json:"race_id"`
	Market        MarketType `json:"market_type"`
	Selection     string     `json:"selection"`
	Probability   float64    `json:"probability"`
	Odds          float64    `json:"odds"`
	ExpectedValue float64    `json:"expected_value"`
	KellyFraction float64    `json:"kelly_fraction"`
	GrowthRate    float64    `json:"growth_rate"`
}

// RaceScore is the summed expected log-growth of a race's accepted candidates
type RaceScore struct {
	RaceID     string  `json:"race_id"`
	Score      float64 `json:"score"`
	Candidates int     `json:"candidates"`
}

// BudgetAllocation maps race id to the amount allocated to it
type BudgetAllocation map[string]float64

// Total returns the sum of all allocated amounts
func (a BudgetAllocation) Total() float64 {
	total := 0.0
	for _, amount := range a {
		total += amount
	}
	return total
}

// StakedBet is a candidate with the stake assigned from its race's allocation
type StakedBet struct {
	BettingCandidate
	Stake float64 `json:"stake"`
}

// AllocationPlan is the complete output of one daily allocation pass
type AllocationPlan struct {
	PlanID      uuid.UUID         `db:"plan_id" json:"plan_id"`
	Date        time.Time         `db:"date" json:"date"`
	TotalBudget float64           `db:"total_budget" json:"total_budget"`
	MinBetUnit  float64           `db:"min_bet_unit" json:"min_bet_unit"`
	Outcome     AllocationOutcome `db:"outcome" json:"outcome"`
	Allocations BudgetAllocation  `json:"allocations"`
	Scores      []RaceScore       `json:"scores"`
	Bets        []StakedBet       `json:"bets"`
	Allocated   float64           `db:"allocated" json:"allocated"`
	Unallocated float64           `db:"unallocated" json:"unallocated"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// HasBets reports whether the plan commits any money
func (p *AllocationPlan) HasBets() bool {
	return p.Outcome == OutcomeAllocated && p.Allocated > 0
}
