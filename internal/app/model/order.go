package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// Order exists only once a checkout session is confirmed by the gateway.
type Order struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	CheckoutSessionID uint            `gorm:"not null;uniqueIndex" json:"checkout_session_id"`
	GatewaySessionID  string          `gorm:"size:255" json:"gateway_session_id"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null" json:"status"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	AmountMinor       int64           `gorm:"not null" json:"amount_minor"`
	Currency          string          `gorm:"size:8;not null" json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// CheckoutLineItem is the per-request copy of a cart line handed to the
// payment gateway. It is persisted only as a JSON snapshot.
type CheckoutLineItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}
