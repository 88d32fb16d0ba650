package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes audit events to a single topic.
type Producer struct {
	brokers []string
	writer  *kafka.Writer
	logger  *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}
}

func (p *Producer) Publish(ctx context.Context, event domain.AuditEvent) error {
	msg, err := encodeAuditEvent(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug("audit event published",
		zap.String("topic", p.writer.Topic),
		zap.String("type", event.Type),
		zap.String("key", string(msg.Key)))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("%w: no kafka brokers configured", domain.ErrUnavailable)
	}

	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("%w: failed to connect to Kafka: %w", domain.ErrUnavailable, err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.logger.Debug("connected to Kafka", zap.Int("partitions", len(partitions)))
	return nil
}

// encodeAuditEvent keys messages by entity so events for the same record
// stay ordered on one partition.
func encodeAuditEvent(event domain.AuditEvent) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Entity + ":" + event.Key),
		Value: data,
		Time:  event.OccurredAt,
	}, nil
}

func decodeAuditEvent(msg kafka.Message) (domain.AuditEvent, error) {
	var event domain.AuditEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal audit event at offset %d: %w", msg.Offset, err)
	}
	if event.Type == "" || event.Entity == "" {
		return event, fmt.Errorf("audit event at offset %d lacks type or entity", msg.Offset)
	}
	return event, nil
}
