package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRoutes(t *testing.T) *testEnv {
	env := setupEnv(t)
	userRepo := repository.NewUserRepository(env.db)
	authService := service.NewAuthService(userRepo, env.cartService, nil, testJWTSecret, 15*time.Minute, time.Hour)
	resetService := service.NewPasswordResetService(repository.NewPasswordResetRepository(env.db), userRepo, nil, "http://shop.test")
	ctrl := NewAuthController(authService, resetService)

	auth := env.router.Group("/auth")
	auth.POST("/register", ctrl.Register)
	auth.POST("/login", ctrl.Login)
	auth.POST("/refresh", ctrl.Refresh)
	auth.POST("/forgot-password", ctrl.ForgotPassword)
	auth.POST("/reset-password", ctrl.ResetPassword)
	auth.GET("/me", env.auth.Authenticate(), ctrl.GetMe)
	auth.DELETE("/me", env.auth.Authenticate(), ctrl.DeleteMe)
	auth.POST("/logout", env.auth.Authenticate(), ctrl.Logout)
	return env
}

func TestAuthController_RegisterAndLogin(t *testing.T) {
	env := setupAuthRoutes(t)

	w := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"name": "New Shopper", "email": "new@example.com", "password": "Password123",
	}, "")
	requireStatus(t, w, http.StatusCreated)
	body := decodeBody(t, w)
	tokens := body["tokens"].(map[string]interface{})
	access := tokens["access_token"].(string)
	assert.NotEmpty(t, tokens["refresh_token"])

	w = env.do(t, http.MethodGet, "/auth/me", nil, access)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "new@example.com", decodeBody(t, w)["user"].(map[string]interface{})["email"])

	w = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "NEW@example.com", "password": "Password123",
	}, "")
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": tokens["refresh_token"].(string),
	}, "")
	requireStatus(t, w, http.StatusOK)
}

func TestAuthController_RegisterErrors(t *testing.T) {
	env := setupAuthRoutes(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate email", map[string]string{"name": "x", "email": "shopper@example.com", "password": "Password123"}, http.StatusConflict, "AUTH_EMAIL_EXISTS"},
		{"weak password", map[string]string{"name": "x", "email": "weak@example.com", "password": "password"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"bad email", map[string]string{"name": "x", "email": "nope", "password": "Password123"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/register", tt.body, "")
			requireStatus(t, w, tt.status)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}
}

func TestAuthController_LoginInvalidCredentials(t *testing.T) {
	env := setupAuthRoutes(t)

	w := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "shopper@example.com", "password": "Wrong123",
	}, "")
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decodeBody(t, w)["error"])
}

func TestAuthController_ForgotPasswordAlwaysOK(t *testing.T) {
	env := setupAuthRoutes(t)

	for _, email := range []string{"shopper@example.com", "ghost@example.com"} {
		w := env.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, "")
		requireStatus(t, w, http.StatusOK)
	}

	w := env.do(t, http.MethodPost, "/auth/reset-password", map[string]string{
		"token": "bogus", "new_password": "Password999",
	}, "")
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "AUTH_RESET_TOKEN_INVALID", decodeBody(t, w)["error"])
}

func TestAuthController_DeleteMe(t *testing.T) {
	env := setupAuthRoutes(t)

	w := env.do(t, http.MethodDelete, "/auth/me", nil, env.token)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/auth/me", nil, env.token)
	requireStatus(t, w, http.StatusNotFound)
}

func TestAuthController_RequiresToken(t *testing.T) {
	env := setupAuthRoutes(t)

	w := env.do(t, http.MethodGet, "/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/logout", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
}
