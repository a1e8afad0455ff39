package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaWriter defines the minimal subset of the kafka-go writer used by the
// kafka sender.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// kafkaSender implements queueSender for Apache Kafka.
type kafkaSender struct {
	topic  string
	writer kafkaWriter
	log    Logger
}

// newKafkaSender builds a Kafka sender for the configured brokers and topic.
func newKafkaSender(cfg *KafkaQueueConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("kafka queue configuration is missing")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}

	return &kafkaSender{
		topic:  cfg.Topic,
		writer: writer,
		log:    ensureLogger(log),
	}, nil
}

// Send publishes the event to the configured Kafka topic.
func (s *kafkaSender) Send(ctx context.Context, evt Event) error {
	payload, err := EncodeEvent(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.BatchID),
		Value: []byte(payload),
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"topic": s.topic,
			"error": err.Error(),
		})
		return fmt.Errorf("send message to kafka: %w", err)
	}
	s.log.DebugObj("kafka publisher delivered event", "publisher_kafka_delivery", map[string]any{
		"topic":    s.topic,
		"batch_id": evt.BatchID,
	})
	return nil
}
