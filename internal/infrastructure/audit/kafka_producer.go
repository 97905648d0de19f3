// Package audit implements the AuditService interface using Kafka.
package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/logger"
)

// SignatureHeader carries the HMAC-SHA256 signature of the message value.
const SignatureHeader = "x-audit-signature"

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer is a Kafka-backed implementation of the AuditService.
// Events are keyed by principal so one principal's events stay ordered.
type KafkaProducer struct {
	writer     messageWriter
	signingKey string
	logger     logger.Logger
}

// NewKafkaProducer creates a new KafkaProducer.
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return newKafkaProducer(writer, cfg.SigningKey, log)
}

func newKafkaProducer(w messageWriter, signingKey string, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer:     w,
		signingKey: signingKey,
		logger:     log.WithComponent("KafkaProducer"),
	}
}

// LogEvent sends an audit event to the Kafka topic.
func (p *KafkaProducer) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal audit event", err)
		return err
	}

	msg := kafka.Message{Key: messageKey(event), Value: value}
	if p.signingKey != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   SignatureHeader,
			Value: []byte(Sign(value, p.signingKey)),
		})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "failed to write message to Kafka", err, logger.Fields{
			"event_type": event.EventType,
			"event_id":   event.EventID.String(),
		})
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func messageKey(event *models.AuditEvent) []byte {
	if event.PrincipalID == nil {
		return []byte(event.EventID.String())
	}
	return []byte(strconv.FormatInt(int64(*event.PrincipalID), 10))
}
