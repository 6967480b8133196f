package logger

import (
	"github.com/sirupsen/logrus"
)

// AllocationLogger provides dedicated logging for scoring and budget allocation.
type AllocationLogger struct {
	*logrus.Entry
}

// NewAllocationLogger creates a new allocation logger.
func NewAllocationLogger(baseLogger *logrus.Logger) *AllocationLogger {
	return &AllocationLogger{
		Entry: baseLogger.WithField("component", "allocation"),
	}
}

// LogCandidateAccepted logs a candidate with a positive Kelly fraction.
func (al *AllocationLogger) LogCandidateAccepted(raceID, market, selection string, probability, odds, expectedValue, kellyFraction, growthRate float64) {
	al.WithFields(logrus.Fields{
		"race_id":        raceID,
		"market":         market,
		"selection":      selection,
		"probability":    probability,
		"odds":           odds,
		"expected_value": expectedValue,
		"kelly_fraction": kellyFraction,
		"growth_rate":    growthRate,
	}).Debug("Candidate accepted")
}

// LogInvalidOdds logs odds that cannot be priced and were skipped.
func (al *AllocationLogger) LogInvalidOdds(raceID, market, selection string, odds float64) {
	al.WithFields(logrus.Fields{
		"race_id":   raceID,
		"market":    market,
		"selection": selection,
		"odds":      odds,
	}).Warn("Odds not above 1, skipping candidate")
}

// LogRaceScore logs the score of one race.
func (al *AllocationLogger) LogRaceScore(raceID string, score float64, candidates int) {
	al.WithFields(logrus.Fields{
		"race_id":    raceID,
		"score":      score,
		"candidates": candidates,
	}).Info("Race scored")
}

// LogAllocationCompleted logs the result of an allocation pass.
func (al *AllocationLogger) LogAllocationCompleted(date, outcome string, races, funded int, budget, allocated, unallocated float64) {
	al.WithFields(logrus.Fields{
		"date":         date,
		"outcome":      outcome,
		"races":        races,
		"races_funded": funded,
		"budget":       budget,
		"allocated":    allocated,
		"unallocated":  unallocated,
	}).Info("Allocation completed")
}

// LogNoOpportunity logs a day without any positive-score race.
func (al *AllocationLogger) LogNoOpportunity(date string, races int, budget float64) {
	al.WithFields(logrus.Fields{
		"date":   date,
		"races":  races,
		"budget": budget,
	}).Info("No positive-score race, budget left unallocated")
}
