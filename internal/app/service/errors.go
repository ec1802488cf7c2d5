package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/storefront-backend/pkg/money"
)

// ValidationError reports caller input the service refuses. It is the same
// type the money package returns so callers match both with one errors.As.
type ValidationError = money.ValidationError

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing resource scoped to the caller.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// PaymentGatewayError wraps a failed or unresolved gateway call. Unknown is
// set when the call timed out and the gateway may still have acted on it.
type PaymentGatewayError struct {
	Op      string
	Unknown bool
	Err     error
}

func (e *PaymentGatewayError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("payment gateway %s: outcome unknown: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrFavoriteAlreadyExists = errors.New("product is already a favorite")
	ErrPaymentNotConfigured  = errors.New("payment gateway is not configured")
	ErrInvalidWebhook        = errors.New("invalid webhook payload")
	ErrCheckoutInProgress    = errors.New("a checkout for this cart is already in progress")
)

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
