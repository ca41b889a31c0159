// Package events publishes analyzed-transcript events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"eventflow-relay/pkg/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventTypeAnalyzed = "eventflow.transcript.analyzed"

// Publisher writes analyzed events to a single topic. When Kafka is disabled it only logs.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	logger  *zap.Logger
}

func New(cfg *config.KafkaConfig, logger *zap.Logger) *Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("Kafka disabled, analyzed events are logged only")
		p := &Publisher{logger: logger}
		if cfg != nil {
			p.topic = cfg.TopicAnalyzed
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicAnalyzed,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	logger.Info("Kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.TopicAnalyzed),
	)

	return &Publisher{
		writer:  writer,
		topic:   cfg.TopicAnalyzed,
		enabled: true,
		logger:  logger,
	}
}

// PublishAnalyzed publishes event keyed by message id so one message's events stay on one partition.
func (p *Publisher) PublishAnalyzed(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Debug("Publishing event",
		zap.String("topic", p.topic),
		zap.String("key", key),
		zap.ByteString("payload", payload),
	)

	if !p.enabled || p.writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(EventTypeAnalyzed)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
