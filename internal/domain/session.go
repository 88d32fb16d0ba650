package domain

import (
	"context"
	"time"
)

// Session is the per-request view of a logged-in user. It is immutable once
// loaded.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

type actorKey struct{}

// WithActor tags ctx with the id of the user performing an operation.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
