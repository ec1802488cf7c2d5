package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		BackendURL:    server.URL,
		SuccessURL:    "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "http://localhost:3000/cancel",
	}, server.Client())
	require.NoError(t, err)
	return client
}

func sign(payload []byte, ts int64) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10) + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(&Config{SecretKey: "sk", SuccessURL: "http://x/success", CancelURL: "http://x/cancel"}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateCheckoutSession_SendsMinorUnitsAndIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "attempt-key", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("customer_email"))
		assert.Equal(t, "49999", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "Wireless Headphones", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "1000", r.PostForm.Get("line_items[1][price_data][unit_amount]"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[checkout_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","status":"open","payment_status":"unpaid","amount_total":100998,"currency":"usd"}`))
	})

	s, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
		IdempotencyKey: "attempt-key",
		Currency:       "USD",
		CustomerEmail:  "buyer@example.com",
		LineItems: []LineItem{
			{Name: "Wireless Headphones", UnitAmount: 49999, Quantity: 2},
			{Name: "Canvas Tote", UnitAmount: 1000, Quantity: 1},
		},
		Metadata: map[string]string{"checkout_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "open", s.Status)
	assert.Equal(t, int64(100998), s.AmountTotal)
	assert.Contains(t, s.URL, "cs_test_1")
}

func TestCreateCheckoutSession_EmptyItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called")
	})
	_, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{Currency: "usd"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateCheckoutSession_ErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		want          error
		indeterminate bool
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"bad"}}`, ErrInvalidRequest, false},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"type":"invalid_request_error","message":"bad key"}}`, ErrUnauthorized, false},
		{"card", http.StatusPaymentRequired, `{"error":{"type":"card_error","message":"declined"}}`, ErrCardDeclined, false},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"invalid_request_error","message":"slow down"}}`, ErrRateLimited, false},
		{"server", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"oops"}}`, ErrNetworkError, true},
		{"bad gateway", http.StatusBadGateway, `{"error":{"type":"api_error","message":"upstream"}}`, ErrNetworkError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
				Currency:  "usd",
				LineItems: []LineItem{{Name: "Mug", UnitAmount: 1450, Quantity: 1}},
			})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.indeterminate, Indeterminate(err))
		})
	}
}

func TestCreateCheckoutSession_ConnectionFailureIsIndeterminate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		conn.Close()
	})

	_, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
		Currency:  "usd",
		LineItems: []LineItem{{Name: "Mug", UnitAmount: 1450, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNetworkError)
	assert.True(t, Indeterminate(err))
}

func TestCreateCheckoutSession_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CreateCheckoutSession(ctx, &CheckoutSessionRequest{
		Currency:  "usd",
		LineItems: []LineItem{{Name: "Mug", UnitAmount: 1450, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, errors.Is(err, ErrNetworkError))
	assert.True(t, Indeterminate(err))
}

func TestGetCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_9","object":"checkout.session","status":"complete","payment_status":"paid","amount_total":500,"currency":"usd"}`))
	})

	s, err := client.GetCheckoutSession(context.Background(), "cs_test_9")
	require.NoError(t, err)
	assert.True(t, s.Paid())
}

func TestCreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100998", r.PostForm.Get("amount"))
		assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret_x","status":"requires_payment_method","amount":100998,"currency":"usd"}`))
	})

	pi, err := client.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountMinor: 100998, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_x", pi.ClientSecret)

	_, err = client.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountMinor: 0, Currency: "usd"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseWebhook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","status":"complete","payment_status":"paid","amount_total":100998,"currency":"usd","metadata":{"checkout_id":"42"}}}}`)

	t.Run("valid signature", func(t *testing.T) {
		event, err := client.ParseWebhook(payload, sign(payload, time.Now().Unix()))
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutSessionCompleted, event.Type)
		require.NotNil(t, event.Session)
		assert.Equal(t, "cs_test_1", event.Session.ID)
		assert.Equal(t, "42", event.Session.Metadata["checkout_id"])
		assert.True(t, event.Session.Paid())
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := sign(payload, time.Now().Unix())
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-3] = ' '
		_, err := client.ParseWebhook(tampered, header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := client.ParseWebhook(payload, sign(payload, time.Now().Add(-time.Hour).Unix()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestGetPaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_7","object":"payment_intent","status":"succeeded","amount":1450,"currency":"usd"}`))
	})

	pi, err := client.GetPaymentIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	assert.True(t, pi.Succeeded())
}

func TestParseWebhook_PaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_7","object":"payment_intent","status":"succeeded","amount":1450,"currency":"usd"}}}`)

	event, err := client.ParseWebhook(payload, sign(payload, time.Now().Unix()))
	require.NoError(t, err)
	require.NotNil(t, event.PaymentIntent)
	assert.Equal(t, "pi_7", event.PaymentIntent.ID)
	assert.Nil(t, event.Session)
}
