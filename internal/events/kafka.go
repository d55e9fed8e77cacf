package events

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher sends outbox records to Kafka keyed by order ID, so every
// event of one order lands on the same partition in order.
type kafkaPublisher struct {
	writer       messageWriter
	defaultTopic string
	logger       zerolog.Logger
}

// NewKafkaPublisher creates a Kafka publisher for the given brokers. Records
// go to their own topic, or defaultTopic when they carry none.
func NewKafkaPublisher(brokers []string, defaultTopic string, logger zerolog.Logger) Publisher {
	logger = logger.With().Str("component", "kafka-publisher").Logger()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Str("brokers", strings.Join(brokers, ",")).
		Str("default_topic", defaultTopic).
		Msg("Kafka publisher initialised")

	return newKafkaPublisher(writer, defaultTopic, logger)
}

func newKafkaPublisher(writer messageWriter, defaultTopic string, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		writer:       writer,
		defaultTopic: defaultTopic,
		logger:       logger,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, records []model.OutboxRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(records))
	for i, rec := range records {
		topic := rec.Topic
		if topic == "" {
			topic = p.defaultTopic
		}
		msgs[i] = kafka.Message{
			Topic: topic,
			Key:   []byte(rec.Key),
			Value: rec.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(rec.EventID.String())},
			},
			Time: rec.CreatedAt.UTC(),
		}
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error().Err(err).Int("records", len(records)).Msg("failed to write messages to Kafka")
		return fmt.Errorf("failed to publish %d events to Kafka: %w", len(records), err)
	}

	p.logger.Debug().Int("records", len(records)).Msg("events published to Kafka")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
