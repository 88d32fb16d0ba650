package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	newReader func() messageReader
	logger    *zap.Logger

	mu     sync.Mutex
	reader messageReader
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	return &Consumer{
		newReader: func() messageReader { return kafka.NewReader(cfg) },
		logger:    logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.reader = nil
	return err
}

// Consume blocks until ctx is cancelled or handler fails. Offsets are
// committed only once handler returns nil or a malformed message is skipped,
// and every call joins the group with a new reader, so a message whose
// handler failed is delivered again on the next call.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, domain.AuditEvent) error) error {
	reader := c.open()
	defer c.release(reader)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		event, err := decodeAuditEvent(msg)
		if err != nil {
			c.logger.Warn("skipping audit message", zap.Error(err))
		} else if err := handler(ctx, event); err != nil {
			return err
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) open() messageReader {
	reader := c.newReader()
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()
	return reader
}

func (c *Consumer) release(reader messageReader) {
	c.mu.Lock()
	if c.reader == reader {
		c.reader = nil
	}
	c.mu.Unlock()
	if err := reader.Close(); err != nil {
		c.logger.Debug("close kafka reader", zap.Error(err))
	}
}
