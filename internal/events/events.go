package events

import (
	"context"
	"log/slog"
	"time"

	sl "notekeeper/internal/lib/logger"
	"notekeeper/internal/models"
)

const (
	UserRegistered    = "user.registered"
	UserAuthenticated = "user.authenticated"
)

type Publisher interface {
	PublishAuthEvent(ctx context.Context, event models.AuthEvent) error
}

// Publish emits an auth event. Delivery is best-effort: a broker
// failure is logged and never fails the request that triggered it.
func Publish(ctx context.Context, log *slog.Logger, pub Publisher, event, email string) {
	err := pub.PublishAuthEvent(ctx, models.AuthEvent{
		Event:      event,
		Email:      email,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.Error("failed to publish auth event", slog.String("event", event), sl.Err(err))
	}
}

// NopPublisher backs local runs without a broker.
type NopPublisher struct{}

func (NopPublisher) PublishAuthEvent(context.Context, models.AuthEvent) error { return nil }
