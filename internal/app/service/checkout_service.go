package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/money"
	"github.com/ikkim/storefront-backend/pkg/payment/stripe"
	"gorm.io/gorm"
)

const (
	DefaultGatewayTimeout = 10 * time.Second
	IdempotencyBucket     = 10 * time.Minute

	// unresolved attempts older than this are given up on; the gateway
	// forgets idempotency keys after 24h
	unresolvedGiveUpAfter = 24 * time.Hour
)

// PaymentGateway is the subset of the Stripe client checkout depends on.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, req *stripe.PaymentIntentRequest) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*stripe.WebhookEvent, error)
}

// OrderNotifier pushes realtime updates to a user's open sessions.
type OrderNotifier interface {
	SendToUser(userID uint, message interface{}) error
}

type PaymentIntentResult struct {
	CheckoutID   uint   `json:"checkout_id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
}

// ReconcileSummary counts what one reconciliation pass did.
type ReconcileSummary struct {
	Checked   int
	Confirmed int
	Expired   int
	Failed    int
	Resumed   int
}

type CheckoutConfig struct {
	Currency string
	Timeout  time.Duration
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID uint, customerEmail string) (*model.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, userID uint) (*PaymentIntentResult, error)
	GetCheckoutSession(ctx context.Context, userID, checkoutID uint) (*model.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ReconcileStale(ctx context.Context, olderThan time.Duration, limit int) (ReconcileSummary, error)
	ListOrders(ctx context.Context, userID uint) ([]model.Order, error)
}

type checkoutService struct {
	checkoutRepo repository.CheckoutRepository
	cartService  CartService
	gateway      PaymentGateway
	publisher    events.Publisher
	notifier     OrderNotifier
	currency     string
	timeout      time.Duration
	now          func() time.Time
}

// NewCheckoutService wires checkout. gateway may be nil when payments are not
// configured; publisher and notifier may be nil.
func NewCheckoutService(
	checkoutRepo repository.CheckoutRepository,
	cartService CartService,
	gateway PaymentGateway,
	publisher events.Publisher,
	notifier OrderNotifier,
	cfg CheckoutConfig,
) CheckoutService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGatewayTimeout
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &checkoutService{
		checkoutRepo: checkoutRepo,
		cartService:  cartService,
		gateway:      gateway,
		publisher:    publisher,
		notifier:     notifier,
		currency:     cfg.Currency,
		timeout:      cfg.Timeout,
		now:          time.Now,
	}
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, userID uint, customerEmail string) (*model.CheckoutSession, error) {
	return s.initiate(ctx, userID, customerEmail, model.CheckoutKindSession)
}

func (s *checkoutService) CreatePaymentIntent(ctx context.Context, userID uint) (*PaymentIntentResult, error) {
	session, err := s.initiate(ctx, userID, "", model.CheckoutKindPaymentIntent)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResult{
		CheckoutID:   session.ID,
		ClientSecret: session.ClientSecret,
		AmountMinor:  session.AmountMinor,
		Currency:     session.Currency,
	}, nil
}

// initiate snapshots the stored cart, claims an idempotent attempt and, unless an
// open one already exists, asks the gateway for it. The cart is not touched.
func (s *checkoutService) initiate(ctx context.Context, userID uint, customerEmail string, kind model.CheckoutKind) (*model.CheckoutSession, error) {
	if s.gateway == nil {
		return nil, ErrPaymentNotConfigured
	}

	cart, err := s.cartService.LoadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, newValidationError("cart", "is empty")
	}

	items := snapshotLineItems(cart)
	amountMinor, err := cart.Total.MinorUnits()
	if err != nil {
		return nil, err
	}
	var lineSum int64
	for _, item := range items {
		unit, err := money.ToMinorUnits(item.UnitPrice, cart.Total.Currency)
		if err != nil {
			return nil, err
		}
		lineSum += unit * int64(item.Quantity)
	}
	if lineSum != amountMinor {
		return nil, newValidationError("amount", "line items do not sum to the cart total")
	}

	snapshot, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	keyBase := idempotencyKeyBase(userID, kind, cart.Total.Currency, items, s.now())
	session, err := s.claimAttempt(ctx, keyBase, &model.CheckoutSession{
		UserID:        userID,
		Kind:          kind,
		KeyBase:       keyBase,
		Status:        model.CheckoutStatusPending,
		AmountMinor:   amountMinor,
		Currency:      cart.Total.Currency,
		CustomerEmail: customerEmail,
		LineItems:     string(snapshot),
	})
	if err != nil {
		return nil, err
	}
	if session.Status == model.CheckoutStatusOpen {
		logger.Info("Reusing open checkout attempt", map[string]interface{}{
			"checkout_id": session.ID,
			"user_id":     userID,
		})
		return session, nil
	}

	return s.submit(ctx, session)
}

// claimAttempt returns the attempt to use for keyBase: the latest one when
// it is open or unresolved, otherwise a fresh PENDING row with a new key.
func (s *checkoutService) claimAttempt(ctx context.Context, keyBase string, fresh *model.CheckoutSession) (*model.CheckoutSession, error) {
	latest, attempts, err := s.checkoutRepo.FindLatestByKeyBase(ctx, fresh.UserID, keyBase)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if latest != nil {
		switch latest.Status {
		case model.CheckoutStatusOpen, model.CheckoutStatusUnknown:
			return latest, nil
		case model.CheckoutStatusPending:
			if s.now().Sub(latest.UpdatedAt) < s.timeout {
				return nil, ErrCheckoutInProgress
			}
			// its request died with the process; replay under the same key
			return latest, nil
		}
	}

	fresh.IdempotencyKey = keyBase
	if attempts > 0 {
		fresh.IdempotencyKey = fmt.Sprintf("%s/%d", keyBase, attempts)
	}
	if err := s.checkoutRepo.Create(ctx, fresh); err != nil {
		// a concurrent request claimed the same key first
		if again, _, findErr := s.checkoutRepo.FindLatestByKeyBase(ctx, fresh.UserID, keyBase); findErr == nil &&
			again.IdempotencyKey == fresh.IdempotencyKey {
			if again.Status == model.CheckoutStatusOpen {
				return again, nil
			}
			return nil, ErrCheckoutInProgress
		}
		return nil, err
	}
	return fresh, nil
}

// submit performs the gateway call for session under the gateway timeout and
// records the outcome. A timeout, 5xx or transport failure leaves the
// session UNKNOWN, not FAILED.
func (s *checkoutService) submit(ctx context.Context, session *model.CheckoutSession) (*model.CheckoutSession, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.callGateway(callCtx, session)

	// state writes must land even when the caller has gone away
	writeCtx := context.WithoutCancel(ctx)
	if err != nil {
		op := "create " + string(session.Kind)
		if stripe.Indeterminate(err) || callCtx.Err() != nil {
			logger.Warn("Payment gateway outcome unknown", map[string]interface{}{
				"checkout_id": session.ID,
				"error":       err.Error(),
			})
			if _, moveErr := s.moveTo(writeCtx, session, model.CheckoutStatusUnknown, map[string]interface{}{
				"failure_reason": err.Error(),
			}); moveErr != nil {
				return nil, moveErr
			}
			return nil, &PaymentGatewayError{Op: op, Unknown: true, Err: err}
		}

		logger.Error("Payment gateway request failed", err, map[string]interface{}{
			"checkout_id": session.ID,
		})
		if _, moveErr := s.moveTo(writeCtx, session, model.CheckoutStatusFailed, map[string]interface{}{
			"failure_reason": err.Error(),
		}); moveErr != nil {
			return nil, moveErr
		}
		return nil, &PaymentGatewayError{Op: op, Err: err}
	}

	updated, err := s.moveTo(writeCtx, session, model.CheckoutStatusOpen, fields)
	if err != nil {
		return nil, err
	}

	logger.Info("Checkout attempt opened", map[string]interface{}{
		"checkout_id":        updated.ID,
		"gateway_session_id": updated.GatewaySessionID,
		"status":             updated.Status,
	})
	return updated, nil
}

// callGateway rebuilds the request from the stored snapshot so a replay under
// the same idempotency key sends identical parameters.
func (s *checkoutService) callGateway(ctx context.Context, session *model.CheckoutSession) (map[string]interface{}, error) {
	metadata := map[string]string{
		"checkout_id": strconv.FormatUint(uint64(session.ID), 10),
		"user_id":     strconv.FormatUint(uint64(session.UserID), 10),
	}

	switch session.Kind {
	case model.CheckoutKindPaymentIntent:
		pi, err := s.gateway.CreatePaymentIntent(ctx, &stripe.PaymentIntentRequest{
			IdempotencyKey: session.IdempotencyKey,
			AmountMinor:    session.AmountMinor,
			Currency:       session.Currency,
			Metadata:       metadata,
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"gateway_session_id": pi.ID,
			"client_secret":      pi.ClientSecret,
		}, nil

	default:
		items, err := decodeLineItems(session)
		if err != nil {
			return nil, err
		}
		req := &stripe.CheckoutSessionRequest{
			IdempotencyKey:    session.IdempotencyKey,
			Currency:          session.Currency,
			CustomerEmail:     session.CustomerEmail,
			ClientReferenceID: metadata["checkout_id"],
			Metadata:          metadata,
		}
		for _, item := range items {
			unit, err := money.ToMinorUnits(item.UnitPrice, session.Currency)
			if err != nil {
				return nil, err
			}
			line := stripe.LineItem{Name: item.Name, UnitAmount: unit, Quantity: int64(item.Quantity)}
			if strings.HasPrefix(item.ImageURL, "http://") || strings.HasPrefix(item.ImageURL, "https://") {
				line.ImageURL = item.ImageURL
			}
			req.LineItems = append(req.LineItems, line)
		}

		cs, err := s.gateway.CreateCheckoutSession(ctx, req)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"gateway_session_id": cs.ID,
			"url":                cs.URL,
		}, nil
	}
}

// moveTo applies a guarded status change and returns the stored session. A
// change someone else already made wins; the current row is returned.
func (s *checkoutService) moveTo(ctx context.Context, session *model.CheckoutSession, to model.CheckoutStatus, fields map[string]interface{}) (*model.CheckoutSession, error) {
	if session.Status.CanTransitionTo(to) {
		applied, err := s.checkoutRepo.Transition(ctx, session.ID, session.Status, to, fields)
		if err != nil {
			return nil, err
		}
		if !applied {
			logger.Info("Checkout session changed concurrently", map[string]interface{}{
				"checkout_id": session.ID,
				"wanted":      to,
			})
		}
	}

	current, err := s.checkoutRepo.FindByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	*session = *current
	return current, nil
}

func (s *checkoutService) GetCheckoutSession(ctx context.Context, userID, checkoutID uint) (*model.CheckoutSession, error) {
	session, err := s.checkoutRepo.FindByID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "checkout session", ID: checkoutID}
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, &NotFoundError{Resource: "checkout session", ID: checkoutID}
	}
	return session, nil
}

func (s *checkoutService) ListOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.checkoutRepo.FindOrdersByUserID(ctx, userID)
}

// HandleWebhook applies a verified gateway event. Events for sessions this
// service does not know are acknowledged and ignored.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrPaymentNotConfigured
	}

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, stripe.ErrNotConfigured) {
			return ErrPaymentNotConfigured
		}
		logger.Warn("Rejected webhook", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	logger.Info("Webhook event received", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case stripe.EventCheckoutSessionCompleted, stripe.EventCheckoutAsyncSucceeded:
		if event.Session == nil {
			return ErrInvalidWebhook
		}
		session, err := s.findForGateway(ctx, event.Session.ID, event.Session.Metadata)
		if err != nil || session == nil {
			return err
		}
		session.GatewaySessionID = event.Session.ID
		if !event.Session.Paid() {
			// asynchronous payment methods complete later
			_, err := s.moveTo(ctx, session, model.CheckoutStatusOpen, map[string]interface{}{
				"gateway_session_id": event.Session.ID,
			})
			return err
		}
		s.checkAmount(session, event.Session.AmountTotal)
		_, err = s.confirm(ctx, session)
		return err

	case stripe.EventPaymentIntentSucceeded:
		if event.PaymentIntent == nil {
			return ErrInvalidWebhook
		}
		session, err := s.findForGateway(ctx, event.PaymentIntent.ID, event.PaymentIntent.Metadata)
		if err != nil || session == nil {
			return err
		}
		session.GatewaySessionID = event.PaymentIntent.ID
		s.checkAmount(session, event.PaymentIntent.Amount)
		_, err = s.confirm(ctx, session)
		return err

	case stripe.EventCheckoutSessionExpired, stripe.EventPaymentIntentCanceled:
		var gatewayID string
		var metadata map[string]string
		if event.Session != nil {
			gatewayID, metadata = event.Session.ID, event.Session.Metadata
		} else if event.PaymentIntent != nil {
			gatewayID, metadata = event.PaymentIntent.ID, event.PaymentIntent.Metadata
		}
		session, err := s.findForGateway(ctx, gatewayID, metadata)
		if err != nil || session == nil {
			return err
		}
		return s.expire(ctx, session)
	}

	return nil
}

// findForGateway resolves the local attempt by gateway ID, falling back to
// the checkout_id metadata for attempts whose create call timed out.
func (s *checkoutService) findForGateway(ctx context.Context, gatewayID string, metadata map[string]string) (*model.CheckoutSession, error) {
	if gatewayID != "" {
		session, err := s.checkoutRepo.FindByGatewaySessionID(ctx, gatewayID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if id, err := strconv.ParseUint(metadata["checkout_id"], 10, 64); err == nil {
		session, err := s.checkoutRepo.FindByID(ctx, uint(id))
		if err == nil {
			if session.GatewaySessionID == "" || session.GatewaySessionID == gatewayID {
				return session, nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	logger.Warn("Webhook for unknown checkout session ignored", map[string]interface{}{
		"gateway_session_id": gatewayID,
	})
	return nil, nil
}

func (s *checkoutService) checkAmount(session *model.CheckoutSession, gatewayAmount int64) {
	if gatewayAmount != 0 && gatewayAmount != session.AmountMinor {
		logger.Warn("Gateway amount differs from checkout amount", map[string]interface{}{
			"checkout_id":    session.ID,
			"amount_minor":   session.AmountMinor,
			"gateway_amount": gatewayAmount,
		})
	}
}

// confirm records the order for a paid session exactly once, then clears the
// cart and announces the order. Later deliveries return nil.
func (s *checkoutService) confirm(ctx context.Context, session *model.CheckoutSession) (*model.Order, error) {
	items, err := decodeLineItems(session)
	if err != nil {
		return nil, err
	}

	lineItems := make([]money.LineItem, 0, len(items))
	orderItems := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, money.LineItem{UnitPrice: item.UnitPrice, Quantity: int64(item.Quantity)})
		orderItems = append(orderItems, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	total, err := money.ComputeTotal(lineItems, session.Currency)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:            session.UserID,
		CheckoutSessionID: session.ID,
		GatewaySessionID:  session.GatewaySessionID,
		Status:            model.OrderStatusConfirmed,
		TotalAmount:       total.Amount,
		AmountMinor:       session.AmountMinor,
		Currency:          session.Currency,
		Items:             orderItems,
	}

	confirmed, err := s.checkoutRepo.Confirm(ctx, session, order)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		logger.Info("Checkout session already settled", map[string]interface{}{
			"checkout_id": session.ID,
		})
		return nil, nil
	}

	logger.Info("Order confirmed", map[string]interface{}{
		"order_id":    order.ID,
		"checkout_id": session.ID,
		"user_id":     session.UserID,
	})

	// the order row is committed; what follows is best effort
	if err := s.cartService.ClearCart(ctx, session.UserID); err != nil {
		logger.Error("Failed to clear cart after confirmation", err, map[string]interface{}{
			"user_id":  session.UserID,
			"order_id": order.ID,
		})
	}

	if err := s.publisher.PublishOrderConfirmed(ctx, orderConfirmedEvent(order)); err != nil {
		logger.Error("Failed to publish order confirmed event", err, map[string]interface{}{
			"order_id": order.ID,
		})
	}

	if s.notifier != nil {
		_ = s.notifier.SendToUser(session.UserID, websocket.Message{
			Type: websocket.MessageOrderConfirmed,
			Data: order,
		})
	}
	return order, nil
}

func (s *checkoutService) expire(ctx context.Context, session *model.CheckoutSession) error {
	updated, err := s.moveTo(ctx, session, model.CheckoutStatusExpired, nil)
	if err != nil {
		return err
	}
	if updated.Status == model.CheckoutStatusExpired && s.notifier != nil {
		_ = s.notifier.SendToUser(updated.UserID, websocket.Message{
			Type: websocket.MessageCheckoutStatus,
			Data: map[string]interface{}{"checkout_id": updated.ID, "status": updated.Status},
		})
	}
	return nil
}

// ReconcileStale settles attempts the webhook has not: open ones are polled,
// unresolved ones are replayed under their original idempotency key.
func (s *checkoutService) ReconcileStale(ctx context.Context, olderThan time.Duration, limit int) (ReconcileSummary, error) {
	var summary ReconcileSummary
	if s.gateway == nil {
		return summary, nil
	}

	sessions, err := s.checkoutRepo.FindStale(ctx, []model.CheckoutStatus{
		model.CheckoutStatusPending,
		model.CheckoutStatusUnknown,
		model.CheckoutStatusOpen,
	}, s.now().Add(-olderThan), limit)
	if err != nil {
		return summary, err
	}

	for i := range sessions {
		session := &sessions[i]
		summary.Checked++

		if session.Status != model.CheckoutStatusOpen {
			if s.now().Sub(session.CreatedAt) > unresolvedGiveUpAfter {
				if _, err := s.moveTo(ctx, session, model.CheckoutStatusFailed, map[string]interface{}{
					"failure_reason": "gateway outcome never resolved",
				}); err != nil {
					logger.Error("Failed to give up on unresolved checkout", err, map[string]interface{}{
						"checkout_id": session.ID,
					})
					continue
				}
				summary.Failed++
				continue
			}
			if _, err := s.submit(ctx, session); err != nil {
				logger.Warn("Replay of unresolved checkout did not succeed", map[string]interface{}{
					"checkout_id": session.ID,
					"error":       err.Error(),
				})
			}
			summary.Resumed++
			continue
		}

		outcome, err := s.poll(ctx, session)
		if err != nil {
			logger.Warn("Failed to poll checkout session", map[string]interface{}{
				"checkout_id": session.ID,
				"error":       err.Error(),
			})
			continue
		}
		switch outcome {
		case model.CheckoutStatusConfirmed:
			summary.Confirmed++
		case model.CheckoutStatusExpired:
			summary.Expired++
		}
	}

	if summary.Checked > 0 {
		logger.Info("Checkout reconciliation pass finished", map[string]interface{}{
			"checked":   summary.Checked,
			"confirmed": summary.Confirmed,
			"expired":   summary.Expired,
			"failed":    summary.Failed,
			"resumed":   summary.Resumed,
		})
	}
	return summary, nil
}

// poll asks the gateway about an open attempt and settles it when final.
func (s *checkoutService) poll(ctx context.Context, session *model.CheckoutSession) (model.CheckoutStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var paid, expired bool
	switch session.Kind {
	case model.CheckoutKindPaymentIntent:
		pi, err := s.gateway.GetPaymentIntent(callCtx, session.GatewaySessionID)
		if err != nil {
			return "", err
		}
		paid, expired = pi.Succeeded(), pi.Status == "canceled"
	default:
		cs, err := s.gateway.GetCheckoutSession(callCtx, session.GatewaySessionID)
		if err != nil {
			return "", err
		}
		paid, expired = cs.Paid(), cs.Status == "expired"
	}

	switch {
	case paid:
		order, err := s.confirm(ctx, session)
		if err != nil {
			return "", err
		}
		if order == nil {
			return "", nil
		}
		return model.CheckoutStatusConfirmed, nil
	case expired:
		return model.CheckoutStatusExpired, s.expire(ctx, session)
	default:
		// still open; bump updated_at so it waits a full interval
		_, err := s.checkoutRepo.Transition(ctx, session.ID, model.CheckoutStatusOpen, model.CheckoutStatusOpen, nil)
		return model.CheckoutStatusOpen, err
	}
}

func snapshotLineItems(cart *model.Cart) []model.CheckoutLineItem {
	items := make([]model.CheckoutLineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, model.CheckoutLineItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.Product.ImageURL,
		})
	}
	return items
}

func decodeLineItems(session *model.CheckoutSession) ([]model.CheckoutLineItem, error) {
	var items []model.CheckoutLineItem
	if err := json.Unmarshal([]byte(session.LineItems), &items); err != nil {
		return nil, fmt.Errorf("corrupt line item snapshot for checkout %d: %w", session.ID, err)
	}
	return items, nil
}

// idempotencyKeyBase hashes the owner, the cart contents and a 10-minute
// time bucket. The same cart resubmitted within the bucket maps to the
// same key.
func idempotencyKeyBase(userID uint, kind model.CheckoutKind, currency string, items []model.CheckoutLineItem, now time.Time) string {
	sorted := make([]model.CheckoutLineItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|", userID, kind, currency)
	for _, item := range sorted {
		fmt.Fprintf(h, "%d:%s:%d;", item.ProductID, item.UnitPrice.String(), item.Quantity)
	}
	fmt.Fprintf(h, "|%d", now.Unix()/int64(IdempotencyBucket/time.Second))
	return hex.EncodeToString(h.Sum(nil))
}

func orderConfirmedEvent(order *model.Order) events.OrderConfirmedEvent {
	items := make([]events.OrderConfirmedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, events.OrderConfirmedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return events.OrderConfirmedEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		CheckoutID:       order.CheckoutSessionID,
		GatewaySessionID: order.GatewaySessionID,
		TotalAmount:      order.TotalAmount,
		AmountMinor:      order.AmountMinor,
		Currency:         order.Currency,
		Items:            items,
		ConfirmedAt:      order.CreatedAt,
	}
}
