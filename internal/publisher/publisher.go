// Package publisher hands finished allocation plans to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/models"
)

const dateLayout = "2006-01-02"

// Publisher delivers a plan
type Publisher interface {
	Publish(ctx context.Context, plan *models.AllocationPlan) error
	Name() string
	Close() error
}

// New creates the publisher selected by configuration
func New(cfg *config.PublisherConfig, logger *logrus.Logger) (Publisher, error) {
	switch cfg.Type {
	case "log":
		return NewLogPublisher(logger), nil
	case "file":
		return NewFilePublisher(cfg.Path), nil
	case "kafka":
		return NewKafkaPublisher(cfg.Brokers, cfg.Topic), nil
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Type)
	}
}

func encode(plan *models.AllocationPlan) ([]byte, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan %s: %w", plan.PlanID, err)
	}
	return data, nil
}
