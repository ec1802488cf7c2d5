package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/util"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Anything unrecognized goes through apperrors.ParseError.
func respondServiceError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		gateway    *service.PaymentGatewayError
	)

	switch {
	case errors.As(err, &validation):
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, validation.Error())
	case errors.As(err, &notFound):
		code := apperrors.ResourceNotFound
		if notFound.Resource == "cart item" {
			code = apperrors.CartItemNotFound
		}
		apperrors.NotFound(c, code, notFound.Error())
	case errors.As(err, &gateway):
		if gateway.Unknown {
			log.Warn("Payment outcome unknown", map[string]interface{}{
				"context": context,
				"error":   err.Error(),
			})
			apperrors.RespondWithError(c, http.StatusGatewayTimeout, apperrors.PaymentOutcomeUnknown,
				"The payment provider did not answer in time. Check the checkout status before retrying")
			return
		}
		log.Error("Payment gateway request failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayFailed, "The payment provider rejected the request")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
	case errors.Is(err, util.ErrInvalidToken), errors.Is(err, util.ErrExpiredToken):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid or expired token")
	case errors.Is(err, service.ErrFavoriteAlreadyExists):
		apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "Product is already in favorites")
	case errors.Is(err, service.ErrCheckoutInProgress):
		apperrors.Conflict(c, apperrors.ResourceConflict, "A checkout for this cart is already in progress")
	case errors.Is(err, service.ErrPaymentNotConfigured):
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.PaymentNotConfigured, "Payments are not configured")
	case errors.Is(err, service.ErrInvalidWebhook):
		apperrors.BadRequest(c, apperrors.PaymentInvalidSignature, "Invalid webhook signature")
	case errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrResetTokenExpired),
		errors.Is(err, service.ErrResetTokenUsed):
		apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, err.Error())
	default:
		log.Error("Request failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}
