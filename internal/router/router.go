package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	favoriteController *controller.FavoriteController
	checkoutController *controller.CheckoutController
	orderController    *controller.OrderController
	imageController    *controller.ImageController // nil when S3 is not configured
	wsController       *controller.WSController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

// Controllers groups the handlers mounted by the router.
type Controllers struct {
	Auth     *controller.AuthController
	Product  *controller.ProductController
	Cart     *controller.CartController
	Favorite *controller.FavoriteController
	Checkout *controller.CheckoutController
	Order    *controller.OrderController
	Image    *controller.ImageController
	WS       *controller.WSController
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		authController:     controllers.Auth,
		productController:  controllers.Product,
		cartController:     controllers.Cart,
		favoriteController: controllers.Favorite,
		checkoutController: controllers.Checkout,
		orderController:    controllers.Order,
		imageController:    controllers.Image,
		wsController:       controllers.WS,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.DELETE("/me", r.authMiddleware.Authenticate(), r.authController.DeleteMe)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProductByID)
			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole(string(model.RoleAdmin)),
				r.productController.CreateProduct,
			)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.GET("/total", r.cartController.GetCartTotal)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("/:product_id", r.cartController.UpdateCartItem)
			cart.DELETE("/:product_id", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		favorites := v1.Group("/favorites")
		favorites.Use(r.authMiddleware.Authenticate())
		{
			favorites.GET("", r.favoriteController.ListFavorites)
			favorites.POST("", r.favoriteController.AddFavorite)
			favorites.DELETE("/:product_id", r.favoriteController.RemoveFavorite)
			favorites.POST("/:product_id/move-to-cart", r.favoriteController.MoveToCart)
		}

		checkout := v1.Group("/checkout")
		checkout.Use(r.authMiddleware.Authenticate())
		{
			checkout.POST("/session", r.checkoutController.CreateSession)
			checkout.POST("/payment-intent", r.checkoutController.CreatePaymentIntent)
			checkout.GET("/session/:id", r.checkoutController.GetSession)
		}

		// signed by the gateway, not by our JWT
		v1.POST("/payments/webhook", r.checkoutController.Webhook)

		v1.GET("/orders", r.authMiddleware.Authenticate(), r.orderController.GetOrders)

		if r.imageController != nil {
			images := v1.Group("/images")
			{
				images.GET("", r.imageController.List)
				images.POST("/upload", r.authMiddleware.Authenticate(), r.imageController.Upload)
			}
			v1.POST("/upload/presigned-url", r.authMiddleware.Authenticate(), r.imageController.GeneratePresignedURL)
		}

		if r.wsController != nil {
			v1.GET("/ws/orders", r.authMiddleware.AuthenticateQuery(), r.wsController.HandleOrders)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
