package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
)

const (
	TopicUserLifecycle    = "user.lifecycle"
	TopicUserLifecycleDLQ = "user.lifecycle.dlq"
)

// UserEventProducer publishes registration and login events for downstream
// consumers (ledger bootstrap, notifications).
type UserEventProducer struct {
	producer sarama.SyncProducer
}

func NewUserEventProducer(brokers []string) (*UserEventProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all replicas
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &UserEventProducer{producer: producer}, nil
}

// Publish sends a lifecycle event, assigning the envelope ID and timestamp
// when the caller left them empty.
func (p *UserEventProducer) Publish(ctx context.Context, ev *domain.UserEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicUserLifecycle,
		Key:   sarama.StringEncoder(ev.UserID), // Partition by subject
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// PublishToDLQ parks an event that could not be delivered.
func (p *UserEventProducer) PublishToDLQ(ctx context.Context, ev *domain.UserEvent) error {
	ev.RetryCount++

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicUserLifecycleDLQ,
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send DLQ event: %w", err)
	}
	return nil
}

func (p *UserEventProducer) Close() error {
	return p.producer.Close()
}
