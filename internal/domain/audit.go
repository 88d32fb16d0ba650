package domain

import "time"

type AuditEvent struct {
	Type       string    `json:"type"`
	Entity     string    `json:"entity"`
	Key        string    `json:"key"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}
