package stripe

import "errors"

var (
	// ErrNotConfigured is returned when no secret key is set
	ErrNotConfigured = errors.New("stripe is not configured")

	// ErrInvalidRequest is returned for 400-class request errors
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the API key is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrCardDeclined is returned for card errors
	ErrCardDeclined = errors.New("card declined")

	// ErrRateLimited is returned on HTTP 429
	ErrRateLimited = errors.New("rate limited by gateway")

	// ErrNetworkError is returned when the gateway could not be reached or
	// answered with a 5xx
	ErrNetworkError = errors.New("network error")

	// ErrTimeout is returned when the caller's deadline expired mid-request;
	// the gateway may or may not have acted on it
	ErrTimeout = errors.New("gateway call timed out")

	// ErrInvalidSignature is returned when a webhook payload fails verification
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Indeterminate reports whether err leaves it unknown if the gateway acted on
// the request: timeouts, 5xx answers and transport failures. Such requests
// must be replayed under the same idempotency key, not retried under a new one.
func Indeterminate(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetworkError)
}
