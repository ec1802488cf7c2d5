package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
)

type FavoriteController struct {
	favoriteService service.FavoriteService
}

func NewFavoriteController(favoriteService service.FavoriteService) *FavoriteController {
	return &FavoriteController{favoriteService: favoriteService}
}

type AddFavoriteRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListFavorites
// GET /api/v1/favorites
func (ctrl *FavoriteController) ListFavorites(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	favorites, err := ctrl.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "list favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
		"count":     len(favorites),
	})
}

// AddFavorite
// POST /api/v1/favorites
func (ctrl *FavoriteController) AddFavorite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}

	favorite, err := ctrl.favoriteService.AddFavorite(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondServiceError(c, err, "add favorite")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"favorite": favorite})
}

// RemoveFavorite
// DELETE /api/v1/favorites/:product_id
func (ctrl *FavoriteController) RemoveFavorite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.favoriteService.RemoveFavorite(c.Request.Context(), userID, productID); err != nil {
		respondServiceError(c, err, "remove favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// MoveToCart adds the favorite to the cart and drops it from favorites
// POST /api/v1/favorites/:product_id/move-to-cart
func (ctrl *FavoriteController) MoveToCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	cart, err := ctrl.favoriteService.MoveToCart(c.Request.Context(), userID, productID)
	if err != nil {
		respondServiceError(c, err, "move favorite to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Moved to cart",
		"cart_items": cart.Items,
		"total":      cart.Total,
	})
}
