package controller

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRoutes(t *testing.T) (*testEnv, *model.Product, *model.Product) {
	env := setupEnv(t)
	ctrl := NewCartController(env.cartService)

	cart := env.router.Group("/cart", env.auth.Authenticate())
	cart.GET("", ctrl.GetCart)
	cart.GET("/total", ctrl.GetCartTotal)
	cart.POST("", ctrl.AddToCart)
	cart.PUT("/:product_id", ctrl.UpdateCartItem)
	cart.DELETE("/:product_id", ctrl.RemoveFromCart)
	cart.DELETE("", ctrl.ClearCart)

	return env, env.createProduct(t, "ring", "499.99"), env.createProduct(t, "box", "10.00")
}

func TestCartController_AddMergeAndTotal(t *testing.T) {
	env, ring, box := setupCartRoutes(t)

	requireStatus(t, env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": ring.ID, "quantity": 1}, env.token), http.StatusOK)
	requireStatus(t, env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": ring.ID}, env.token), http.StatusOK)
	requireStatus(t, env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": box.ID, "quantity": 1}, env.token), http.StatusOK)

	w := env.do(t, http.MethodGet, "/cart", nil, env.token)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])

	w = env.do(t, http.MethodGet, "/cart/total", nil, env.token)
	requireStatus(t, w, http.StatusOK)
	body = decodeBody(t, w)
	assert.Equal(t, "1009.98", body["amount"])
	assert.Equal(t, "usd", body["currency"])
	assert.Equal(t, float64(100998), body["amount_minor"])
}

func TestCartController_Errors(t *testing.T) {
	env, ring, _ := setupCartRoutes(t)

	w := env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": 9999, "quantity": 1}, env.token)
	requireStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": ring.ID, "quantity": 1001}, env.token)
	requireStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodDelete, "/cart/"+strconv.Itoa(int(ring.ID)), nil, env.token)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "CART_ITEM_NOT_FOUND", decodeBody(t, w)["error"])

	w = env.do(t, http.MethodDelete, "/cart/abc", nil, env.token)
	requireStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodGet, "/cart", nil, "")
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestCartController_UpdateRemoveClear(t *testing.T) {
	env, ring, box := setupCartRoutes(t)
	path := "/cart/" + strconv.Itoa(int(ring.ID))

	requireStatus(t, env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": ring.ID, "quantity": 3}, env.token), http.StatusOK)
	requireStatus(t, env.do(t, http.MethodPost, "/cart", map[string]interface{}{"product_id": box.ID, "quantity": 1}, env.token), http.StatusOK)

	w := env.do(t, http.MethodPut, path, map[string]interface{}{"quantity": 0}, env.token)
	requireStatus(t, w, http.StatusOK)
	items := decodeBody(t, w)["cart_items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0].(map[string]interface{})["quantity"])

	requireStatus(t, env.do(t, http.MethodDelete, path, nil, env.token), http.StatusOK)
	requireStatus(t, env.do(t, http.MethodDelete, "/cart", nil, env.token), http.StatusOK)

	w = env.do(t, http.MethodGet, "/cart", nil, env.token)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}
