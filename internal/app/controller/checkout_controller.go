package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

const maxWebhookBody = 64 << 10

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// CreateSession opens a hosted checkout session for the cart. The cart is
// left untouched until the payment is confirmed.
// POST /api/v1/checkout/session
func (ctrl *CheckoutController) CreateSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	email, _ := middleware.GetUserEmail(c)

	session, err := ctrl.checkoutService.CreateCheckoutSession(c.Request.Context(), userID, email)
	if err != nil {
		respondServiceError(c, err, "create checkout session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkout_id": session.ID,
		"session_id":  session.GatewaySessionID,
		"url":         session.URL,
		"status":      session.Status,
	})
}

// CreatePaymentIntent
// POST /api/v1/checkout/payment-intent
func (ctrl *CheckoutController) CreatePaymentIntent(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := ctrl.checkoutService.CreatePaymentIntent(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "create payment intent")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSession returns the local status of one of the caller's attempts
// GET /api/v1/checkout/session/:id
func (ctrl *CheckoutController) GetSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	session, err := ctrl.checkoutService.GetCheckoutSession(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "get checkout session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Webhook receives signed gateway events
// POST /api/v1/payments/webhook
func (ctrl *CheckoutController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Warn("Failed to read webhook body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unreadable webhook body")
		return
	}

	if err := ctrl.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondServiceError(c, err, "handle webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
