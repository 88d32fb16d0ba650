package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEncodeAuditEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg, err := encodeAuditEvent(domain.AuditEvent{
		Type: "airport_deleted", Entity: "airport", Key: "LHR", Actor: "alice", OccurredAt: at,
	})
	require.NoError(t, err)

	assert.Equal(t, "airport:LHR", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.JSONEq(t, `{"type":"airport_deleted","entity":"airport","key":"LHR","actor":"alice","detail":"","occurred_at":"2026-03-01T10:00:00Z"}`, string(msg.Value))
}

func TestEncodeAuditEventStampsTime(t *testing.T) {
	msg, err := encodeAuditEvent(domain.AuditEvent{Type: "user_created", Entity: "user", Key: "bob"})
	require.NoError(t, err)
	assert.False(t, msg.Time.IsZero())
}

func TestDecodeAuditEvent(t *testing.T) {
	event, err := decodeAuditEvent(kafka.Message{Value: []byte(`{"type":"user_deleted","entity":"user","key":"bob"}`)})
	require.NoError(t, err)
	assert.Equal(t, "user_deleted", event.Type)
	assert.Equal(t, "bob", event.Key)

	_, err = decodeAuditEvent(kafka.Message{Value: []byte(`not json`), Offset: 7})
	assert.ErrorContains(t, err, "offset 7")

	_, err = decodeAuditEvent(kafka.Message{Value: []byte(`{"key":"bob"}`)})
	assert.Error(t, err)
}

func TestCheckConnectionWithoutBrokers(t *testing.T) {
	p := &Producer{}
	err := p.CheckConnection(t.Context())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// memoryLog hands out readers that start at the last committed offset, the
// way a consumer group resumes after rejoining.
type memoryLog struct {
	messages  []kafka.Message
	committed int
	opened    int
}

func (l *memoryLog) reader() messageReader {
	l.opened++
	return &memoryReader{log: l, next: l.committed}
}

type memoryReader struct {
	log  *memoryLog
	next int
}

func (r *memoryReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.next >= len(r.log.messages) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.log.messages[r.next]
	r.next++
	return msg, nil
}

func (r *memoryReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.log.committed = int(m.Offset) + 1
	}
	return nil
}

func (r *memoryReader) Close() error { return nil }

func auditMessage(t *testing.T, offset int64, key string) kafka.Message {
	t.Helper()
	msg, err := encodeAuditEvent(domain.AuditEvent{Type: "user_deleted", Entity: "user", Key: key})
	require.NoError(t, err)
	msg.Offset = offset
	return msg
}

func TestConsumeRedeliversAfterHandlerFailure(t *testing.T) {
	log := &memoryLog{messages: []kafka.Message{
		auditMessage(t, 0, "ann"),
		auditMessage(t, 1, "bob"),
	}}
	c := &Consumer{newReader: log.reader, logger: zap.NewNop()}

	storeDown := errors.New("store down")
	err := c.Consume(t.Context(), func(_ context.Context, event domain.AuditEvent) error {
		if event.Key == "bob" {
			return storeDown
		}
		return nil
	})
	require.ErrorIs(t, err, storeDown)
	assert.Equal(t, 1, log.committed)

	ctx, cancel := context.WithCancel(t.Context())
	var handled []string
	err = c.Consume(ctx, func(_ context.Context, event domain.AuditEvent) error {
		handled = append(handled, event.Key)
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, handled)
	assert.Equal(t, 2, log.committed)
	assert.Equal(t, 2, log.opened)
}

func TestConsumeCommitsMalformedMessages(t *testing.T) {
	log := &memoryLog{messages: []kafka.Message{
		{Value: []byte("not json"), Offset: 0},
		auditMessage(t, 1, "ann"),
	}}
	c := &Consumer{newReader: log.reader, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(t.Context())
	var handled []string
	err := c.Consume(ctx, func(_ context.Context, event domain.AuditEvent) error {
		handled = append(handled, event.Key)
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ann"}, handled)
	assert.Equal(t, 2, log.committed)
}

func TestConsumerCloseWithoutReader(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "audit", "audit-events", zap.NewNop())
	assert.NoError(t, c.Close())
}
