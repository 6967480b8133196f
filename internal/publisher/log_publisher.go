package publisher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/models"
)

// LogPublisher writes the plan and each bet to the log
type LogPublisher struct {
	logger *logrus.Entry
}

// NewLogPublisher creates a log publisher
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogPublisher{logger: logger.WithField("component", "publisher")}
}

// Name returns the publisher name
func (p *LogPublisher) Name() string {
	return "log"
}

// Publish logs the plan summary followed by one line per bet
func (p *LogPublisher) Publish(ctx context.Context, plan *models.AllocationPlan) error {
	p.logger.WithFields(logrus.Fields{
		"plan_id":      plan.PlanID.String(),
		"date":         plan.Date.Format(dateLayout),
		"outcome":      string(plan.Outcome),
		"total_budget": plan.TotalBudget,
		"allocated":    plan.Allocated,
		"unallocated":  plan.Unallocated,
		"bets":         len(plan.Bets),
	}).Info("Allocation plan")

	for _, bet := range plan.Bets {
		p.logger.WithFields(logrus.Fields{
			"plan_id":   plan.PlanID.String(),
			"race_id":   bet.RaceID,
			"market":    string(bet.Market),
			"selection": bet.Selection,
			"odds":      bet.Odds,
			"stake":     bet.Stake,
		}).Info("Planned bet")
	}
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error {
	return nil
}
