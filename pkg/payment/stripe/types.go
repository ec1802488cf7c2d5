package stripe

// LineItem is one priced row of a hosted checkout session.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64 // minor units
	Quantity   int64
}

// CheckoutSessionRequest describes a hosted checkout session to create.
type CheckoutSessionRequest struct {
	IdempotencyKey    string
	Currency          string
	CustomerEmail     string
	ClientReferenceID string
	LineItems         []LineItem
	Metadata          map[string]string
}

// CheckoutSession is the subset of the gateway session the API relies on.
type CheckoutSession struct {
	ID                string
	URL               string
	Status            string // open, complete, expired
	PaymentStatus     string // paid, unpaid, no_payment_required
	AmountTotal       int64
	Currency          string
	ClientReferenceID string
	Metadata          map[string]string
}

// Paid reports whether the buyer completed payment.
func (s *CheckoutSession) Paid() bool {
	return s.Status == "complete" && (s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required")
}

// PaymentIntentRequest describes a PaymentIntent to create.
type PaymentIntentRequest struct {
	IdempotencyKey string
	AmountMinor    int64
	Currency       string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string // requires_payment_method, processing, succeeded, canceled, ...
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Succeeded reports whether the intent has been paid.
func (p *PaymentIntent) Succeeded() bool {
	return p.Status == "succeeded"
}

// Event types handled by the webhook endpoint.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
	EventCheckoutAsyncSucceeded   = "checkout.session.async_payment_succeeded"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventPaymentIntentCanceled    = "payment_intent.canceled"
)

// WebhookEvent is a verified gateway event. Session is set for
// checkout.session.* events and PaymentIntent for payment_intent.* events.
type WebhookEvent struct {
	ID            string
	Type          string
	Session       *CheckoutSession
	PaymentIntent *PaymentIntent
}
