package model

import (
	"time"
)

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "PENDING"   // row written, gateway not yet answered
	CheckoutStatusOpen      CheckoutStatus = "OPEN"      // gateway accepted, awaiting payment
	CheckoutStatusUnknown   CheckoutStatus = "UNKNOWN"   // gateway call timed out
	CheckoutStatusFailed    CheckoutStatus = "FAILED"    // gateway rejected the request
	CheckoutStatusConfirmed CheckoutStatus = "CONFIRMED" // verified payment, cart cleared
	CheckoutStatusExpired   CheckoutStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible.
func (s CheckoutStatus) IsTerminal() bool {
	switch s {
	case CheckoutStatusFailed, CheckoutStatusConfirmed, CheckoutStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo guards the status machine.
func (s CheckoutStatus) CanTransitionTo(next CheckoutStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case CheckoutStatusPending:
		return next != CheckoutStatusPending
	case CheckoutStatusUnknown:
		return next == CheckoutStatusOpen || next == CheckoutStatusConfirmed ||
			next == CheckoutStatusExpired || next == CheckoutStatusFailed
	case CheckoutStatusOpen:
		return next == CheckoutStatusConfirmed || next == CheckoutStatusExpired
	}
	return false
}

type CheckoutKind string

const (
	CheckoutKindSession       CheckoutKind = "checkout_session"
	CheckoutKindPaymentIntent CheckoutKind = "payment_intent"
)

// CheckoutSession records one attempt to open a payment with the gateway.
type CheckoutSession struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	Kind             CheckoutKind   `gorm:"type:varchar(32);not null" json:"kind"`
	KeyBase          string         `gorm:"size:64;not null;index" json:"-"`
	IdempotencyKey   string         `gorm:"size:80;not null;uniqueIndex" json:"-"`
	GatewaySessionID string         `gorm:"size:255;index" json:"session_id,omitempty"`
	Status           CheckoutStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AmountMinor      int64          `gorm:"not null" json:"amount_minor"`
	Currency         string         `gorm:"size:8;not null" json:"currency"`
	CustomerEmail    string         `json:"-"`
	URL              string         `gorm:"type:text" json:"url,omitempty"`
	ClientSecret     string         `gorm:"type:text" json:"-"`
	LineItems        string         `gorm:"type:text" json:"-"` // JSON snapshot of CheckoutLineItem
	FailureReason    string         `gorm:"type:text" json:"failure_reason,omitempty"`
	ConfirmedAt      *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}
