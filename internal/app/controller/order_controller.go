package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
)

type OrderController struct {
	checkoutService service.CheckoutService
}

func NewOrderController(checkoutService service.CheckoutService) *OrderController {
	return &OrderController{checkoutService: checkoutService}
}

// GetOrders lists the caller's confirmed orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := ctrl.checkoutService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}
