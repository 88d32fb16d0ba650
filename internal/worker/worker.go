// Package worker holds the background jobs run by cmd/worker.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/metrics"
	"go.uber.org/zap"
)

const consumeRetryDelay = 5 * time.Second

type AuditStore interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

type AuditSource interface {
	Consume(ctx context.Context, handler func(context.Context, domain.AuditEvent) error) error
}

type SummaryRefresher interface {
	RefreshSummary(ctx context.Context) ([]domain.CountryCount, error)
}

type PasswordRehasher interface {
	RehashLegacyPasswords(ctx context.Context) (int, error)
}

// AuditRecorder persists audit events read from the broker.
type AuditRecorder struct {
	store      AuditStore
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewAuditRecorder(store AuditStore, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{store: store, logger: logger, retryDelay: consumeRetryDelay}
}

// Handle stores one event. Events rejected by the database as invalid are
// dropped so one bad message cannot stall the consumer group.
func (r *AuditRecorder) Handle(ctx context.Context, event domain.AuditEvent) error {
	err := r.store.Insert(ctx, event)
	switch domain.OutcomeOf(err) {
	case domain.OutcomeOK:
		metrics.AuditEventsStored.Inc()
		return nil
	case domain.OutcomeValidation, domain.OutcomeConflict, domain.OutcomeAlreadyExists:
		r.logger.Warn("dropping audit event",
			zap.String("type", event.Type), zap.String("key", event.Key), zap.Error(err))
		return nil
	default:
		return err
	}
}

// Run consumes until ctx is done, restarting the consumer after a failure.
// The source redelivers the event whose handling failed.
func (r *AuditRecorder) Run(ctx context.Context, source AuditSource) {
	for {
		err := source.Consume(ctx, r.Handle)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}
		r.logger.Error("audit consumer failed, restarting", zap.Error(err), zap.Duration("delay", r.retryDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryDelay):
		}
	}
}

// RefreshSummaryEvery re-warms the country summary cache immediately and then
// on every tick until ctx is done.
func RefreshSummaryEvery(ctx context.Context, interval time.Duration, refresher SummaryRefresher, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := refresher.RefreshSummary(ctx)
		if err != nil {
			logger.Error("refresh airport summary", zap.Error(err))
		} else {
			logger.Debug("airport summary refreshed", zap.Int("countries", len(summary)))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RehashPasswords converts legacy plaintext passwords once at startup.
func RehashPasswords(ctx context.Context, rehasher PasswordRehasher, logger *zap.Logger) error {
	converted, err := rehasher.RehashLegacyPasswords(ctx)
	if err != nil {
		return err
	}
	if converted > 0 {
		logger.Info("legacy passwords converted", zap.Int("count", converted))
	}
	return nil
}
