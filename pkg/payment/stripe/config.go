package stripe

import "strings"

// Config represents the configuration for the Stripe client
type Config struct {
	// SecretKey is the Stripe secret API key (sk_...)
	SecretKey string

	// WebhookSecret verifies Stripe-Signature headers (whsec_...)
	WebhookSecret string

	// BackendURL overrides https://api.stripe.com, used against local fakes
	BackendURL string

	// SuccessURL and CancelURL are where hosted checkout redirects the buyer
	SuccessURL string
	CancelURL  string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrNotConfigured
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return ErrInvalidRequest
	}
	if !strings.Contains(c.SuccessURL, "{CHECKOUT_SESSION_ID}") {
		return ErrInvalidRequest
	}
	return nil
}
