package repository

import (
	"context"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

type PGAuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &PGAuditRepository{db: db}
}

func (r *PGAuditRepository) Insert(ctx context.Context, e domain.AuditEvent) error {
	_, err := r.db.Exec(ctx, `INSERT INTO audit_events (event_type, entity, entity_key, actor, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, e.Type, e.Entity, e.Key, e.Actor, e.Detail, e.OccurredAt)
	return translate(err)
}

func (r *PGAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.Query(ctx, `SELECT event_type, entity, entity_key, actor, detail, occurred_at
		FROM audit_events ORDER BY occurred_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	events := make([]domain.AuditEvent, 0)
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.Type, &e.Entity, &e.Key, &e.Actor, &e.Detail, &e.OccurredAt); err != nil {
			return nil, translate(err)
		}
		events = append(events, e)
	}
	return events, translate(rows.Err())
}

var _ AuditRepository = (*PGAuditRepository)(nil)
