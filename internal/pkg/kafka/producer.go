package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const deliveryTimeout = 10 * time.Second

// ProducerInterface defines the interface for Kafka producer operations.
type ProducerInterface interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaProducer publishes ledger events to the ledger topic.
type KafkaProducer struct {
	producer ProducerInterface
	topic    string
}

// NewKafkaProducer creates and returns a new KafkaProducer instance.
func NewKafkaProducer(cfg config.KafkaConfig) (*KafkaProducer, error) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.Server,
		"client.id":         cfg.ClientID,
	}
	if cfg.SecurityProtocol != "" {
		_ = kafkaConfig.SetKey("security.protocol", cfg.SecurityProtocol)
	}
	if cfg.SASLMechanism != "" {
		_ = kafkaConfig.SetKey("sasl.mechanisms", cfg.SASLMechanism)
		_ = kafkaConfig.SetKey("sasl.username", cfg.SASLUsername)
		_ = kafkaConfig.SetKey("sasl.password", cfg.SASLPassword)
	}

	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info(log_messages.KafkaProducerCreated, zap.String("topic", cfg.LedgerTopic))

	return NewKafkaProducerWithProducer(producer, cfg.LedgerTopic), nil
}

func NewKafkaProducerWithProducer(producer ProducerInterface, topic string) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic}
}

// Publish sends a message to the Kafka topic and waits for its delivery report.
func (kp *KafkaProducer) Publish(ctx context.Context, key string, msg []byte) error {
	deliveryChan := make(chan kafka.Event, 1)

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
		Value:          msg,
	}
	if key != "" {
		message.Key = []byte(key)
	}

	if err := kp.producer.Produce(message, deliveryChan); err != nil {
		logger.CtxError(ctx, "Failed to produce Kafka message", err)
		return err
	}

	timer := time.NewTimer(deliveryTimeout)
	defer timer.Stop()

	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type %T", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timeout waiting for Kafka delivery report")
	}

	return nil
}

// PublishLedgerEvent serializes the event and publishes it keyed by group so
// that one group's events stay ordered within a partition.
func (kp *KafkaProducer) PublishLedgerEvent(ctx context.Context, event models.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}
	if err := kp.Publish(ctx, event.GroupName, payload); err != nil {
		logger.CtxError(ctx, log_messages.KafkaDeliveryFailed, err,
			zap.String("event_type", event.Type),
			zap.String("event_id", event.EventID),
		)
		return err
	}
	return nil
}

// Close flushes and closes the Kafka producer.
func (kp *KafkaProducer) Close() error {
	kp.producer.Flush(5000)
	kp.producer.Close()
	return nil
}
