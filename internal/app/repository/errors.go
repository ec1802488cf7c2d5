package repository

import "errors"

// Store-agnostic errors shared by the SQL and Mongo cart stores.
var (
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrQuantityLimitExceeded = errors.New("cart line quantity limit exceeded")
)
