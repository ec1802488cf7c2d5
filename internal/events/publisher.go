// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeOrderConfirmed = "order.confirmed"

type OrderConfirmedItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// OrderConfirmedEvent is emitted once per order after the confirmation commits.
type OrderConfirmedEvent struct {
	OrderID          uint                 `json:"order_id"`
	UserID           uint                 `json:"user_id"`
	CheckoutID       uint                 `json:"checkout_id"`
	GatewaySessionID string               `json:"gateway_session_id"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	AmountMinor      int64                `json:"amount_minor"`
	Currency         string               `json:"currency"`
	Items            []OrderConfirmedItem `json:"items"`
	ConfirmedAt      time.Time            `json:"confirmed_at"`
}

type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error
	Close() error
}

type envelope struct {
	Type string              `json:"type"`
	Data OrderConfirmedEvent `json:"data"`
}

func encode(event OrderConfirmedEvent) ([]byte, error) {
	return json.Marshal(envelope{Type: EventTypeOrderConfirmed, Data: event})
}
