package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client is a Stripe API client scoped to checkout sessions, payment
// intents and webhook verification.
type Client struct {
	config   *Config
	sessions *session.Client
	intents  *paymentintent.Client
}

// NewClient creates a new Stripe client. httpClient may be nil.
// Retries are disabled; the caller owns timeouts through ctx.
func NewClient(config *Config, httpClient *http.Client) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	backendConfig := &stripego.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	}
	if config.BackendURL != "" {
		backendConfig.URL = stripego.String(config.BackendURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendConfig)

	return &Client{
		config:   config,
		sessions: &session.Client{B: backend, Key: config.SecretKey},
		intents:  &paymentintent.Client{B: backend, Key: config.SecretKey},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() *Config {
	return c.config
}

// CreateCheckoutSession creates a hosted checkout session in payment mode.
func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if req == nil || len(req.LineItems) == 0 {
		return nil, ErrInvalidRequest
	}

	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		SuccessURL:         stripego.String(c.config.SuccessURL),
		CancelURL:          stripego.String(c.config.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripego.String(req.ClientReferenceID)
	}
	for _, item := range req.LineItems {
		productData := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripego.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripego.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(strings.ToLower(req.Currency)),
				ProductData: productData,
				UnitAmount:  stripego.Int64(item.UnitAmount),
			},
			Quantity: stripego.Int64(item.Quantity),
		})
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", classify(ctx, err))
	}
	return toCheckoutSession(s), nil
}

// GetCheckoutSession fetches the current state of a session.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", classify(ctx, err))
	}
	return toCheckoutSession(s), nil
}

// CreatePaymentIntent creates a PaymentIntent with automatic payment methods.
func (c *Client) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntent, error) {
	if req == nil || req.AmountMinor <= 0 {
		return nil, ErrInvalidRequest
	}

	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.AmountMinor),
		Currency: stripego.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", classify(ctx, err))
	}
	return toPaymentIntent(pi), nil
}

// GetPaymentIntent fetches the current state of a payment intent.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", classify(ctx, err))
	}
	return toPaymentIntent(pi), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if c.config.WebhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.config.WebhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}
	switch {
	case strings.HasPrefix(out.Type, "checkout.session."):
		var s stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Session = toCheckoutSession(&s)
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.PaymentIntent = toPaymentIntent(&pi)
	}
	return out, nil
}

func toPaymentIntent(pi *stripego.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func toCheckoutSession(s *stripego.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		Status:            string(s.Status),
		PaymentStatus:     string(s.PaymentStatus),
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}
}

// classify maps a stripe-go error onto the package sentinels, keeping the
// original message.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	var sentinel error
	switch {
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized || stripeErr.HTTPStatusCode == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case stripeErr.Type == stripego.ErrorTypeCard || stripeErr.HTTPStatusCode == http.StatusPaymentRequired:
		sentinel = ErrCardDeclined
	case stripeErr.HTTPStatusCode >= 500 || stripeErr.Type == stripego.ErrorTypeAPI:
		sentinel = ErrNetworkError
	default:
		sentinel = ErrInvalidRequest
	}
	return fmt.Errorf("%w: %s", sentinel, stripeErr.Msg)
}
