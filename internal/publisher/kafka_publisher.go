package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yourusername/paddock/internal/models"
)

// MessageWriter is the subset of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends one message per plan keyed by plan date
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            5,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	return NewKafkaPublisherWithWriter(writer, topic)
}

// NewKafkaPublisherWithWriter creates a publisher on an existing writer
func NewKafkaPublisherWithWriter(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Name returns the publisher name
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Publish writes the plan; plans of the same day share a partition
func (p *KafkaPublisher) Publish(ctx context.Context, plan *models.AllocationPlan) error {
	data, err := encode(plan)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(plan.Date.Format(dateLayout)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "plan_id", Value: []byte(plan.PlanID.String())},
			{Key: "outcome", Value: []byte(plan.Outcome)},
		},
		Time: plan.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish plan %s to %s: %w", plan.PlanID, p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
