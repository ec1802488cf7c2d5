package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "get cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart_items": cart.Items,
		"count":      len(cart.Items),
		"total":      cart.Total,
	})
}

// GetCartTotal returns the cart total in major and minor units
// GET /api/v1/cart/total
func (ctrl *CartController) GetCartTotal(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	total, err := ctrl.cartService.GetCartTotal(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "get cart total")
		return
	}
	minor, err := total.MinorUnits()
	if err != nil {
		respondServiceError(c, err, "get cart total")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":       total.Amount,
		"currency":     total.Currency,
		"amount_minor": minor,
	})
}

// AddToCart adds a product to the cart, merging with an existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := ctrl.cartService.AddToCart(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "add to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Item added to cart",
		"cart_items": cart.Items,
		"total":      cart.Total,
	})
}

// UpdateCartItem sets a line's quantity
// PUT /api/v1/cart/:product_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	cart, err := ctrl.cartService.SetQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "update cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Cart item updated",
		"cart_items": cart.Items,
		"total":      cart.Total,
	})
}

// RemoveFromCart removes a line
// DELETE /api/v1/cart/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(c.Request.Context(), userID, productID); err != nil {
		respondServiceError(c, err, "remove from cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
