package events

import (
	"context"

	"github.com/ikkim/storefront-backend/pkg/logger"
)

// NoopPublisher only logs. Used when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) PublishOrderConfirmed(_ context.Context, event OrderConfirmedEvent) error {
	logger.Info("Order confirmed event (no broker configured)", map[string]interface{}{
		"order_id": event.OrderID,
		"user_id":  event.UserID,
	})
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
