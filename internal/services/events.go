package services

import (
	"context"
	"time"

	"github.com/wicart/storefront/internal/logger"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, channel string, payload any) (string, error)
}

// publishEvent fires the event in the background. Failures are logged and never
// reach the caller.
func publishEvent(ctx context.Context, events EventPublisher, channel string, payload any) {
	if events == nil {
		return
	}
	log := logger.From(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if _, err := events.PublishEvent(ctx, channel, payload); err != nil {
			log.Warn("event publish failed", zap.String("channel", channel), zap.Error(err))
		}
	}()
}
