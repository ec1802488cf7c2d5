package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code/message pair derived from a low-level error.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns storage and transport errors into a client-safe code and
// message. context names the operation, e.g. "create favorite".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	lower := strings.ToLower(err.Error())

	// postgres 23505 and sqlite UNIQUE failures
	if strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint") {
		return parseDuplicateKey(lower)
	}

	// postgres 23503
	if strings.Contains(lower, "foreign key constraint") {
		if strings.Contains(lower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "The record is still referenced by other data"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	// postgres 23502
	if strings.Contains(lower, "violates not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(lower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid input"}
	}

	if strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKey(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	case strings.Contains(lower, "idx_favorite_user_product") || strings.Contains(lower, "favorites."):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Product is already in favorites"}
	case strings.Contains(lower, "idx_cart_user_product") || strings.Contains(lower, "cart_items."):
		return ErrorInfo{Code: ResourceConflict, Message: "Cart was modified concurrently. Please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "The record already exists"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "product"):
		return "Product not found"
	case strings.Contains(lower, "cart"):
		return "Cart item not found"
	case strings.Contains(lower, "favorite"):
		return "Favorite not found"
	case strings.Contains(lower, "user"):
		return "User not found"
	case strings.Contains(lower, "checkout") || strings.Contains(lower, "order"):
		return "Checkout session not found"
	}
	return "The requested resource was not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create") || strings.Contains(lower, "add"):
		return "Failed to save. Please try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update. Please try again later"
	case strings.Contains(lower, "delete") || strings.Contains(lower, "remove"):
		return "Failed to delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
