package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/messaging"
)

const (
	DefaultTopic = "payments.ledger"

	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

// KafkaConfig holds the producer settings
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaPublisher writes ledger events to a Kafka topic keyed by payment id,
// so every event of one payment lands on the same partition in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   core.Logger
}

var _ messaging.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher connects a synchronous producer, retrying while the brokers come up
func NewKafkaPublisher(cfg KafkaConfig, logger core.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Producer.Retry.Max = 5
	config.Net.MaxOpenRequests = 1
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}

	var (
		producer sarama.SyncProducer
		err      error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		producer, err = sarama.NewSyncProducer(cfg.Brokers, config)
		if err == nil {
			break
		}
		logger.Warn("Waiting for Kafka", map[string]any{
			"attempt":      attempt,
			"max_attempts": connectAttempts,
			"error":        err.Error(),
		})
		if attempt < connectAttempts {
			time.Sleep(connectDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized", map[string]any{"brokers": cfg.Brokers, "topic": cfg.Topic})
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger core.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With(map[string]any{"component": "kafka_publisher", "topic": topic}),
	}
}

// PublishPaymentEvent sends one ledger event
func (p *KafkaPublisher) PublishPaymentEvent(ctx context.Context, event entity.PaymentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.PaymentID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.Type, err)
	}

	p.logger.Debug("Published ledger event", map[string]any{
		"event_type": event.Type,
		"payment_id": event.PaymentID,
		"partition":  partition,
		"offset":     offset,
	})
	return nil
}

// Close flushes and closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
