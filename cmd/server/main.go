package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/cache"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/payment/stripe"
	pkgredis "github.com/ikkim/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
	})

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"cart_store":  cfg.CartStore,
		"broker":      cfg.Events.Broker,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	favoriteRepo := repository.NewFavoriteRepository(db.GetDB())
	resetRepo := repository.NewPasswordResetRepository(db.GetDB())
	checkoutRepo := repository.NewCheckoutRepository(db.GetDB())

	var cartRepo repository.CartRepository = repository.NewCartRepository(db.GetDB())
	if cfg.CartStore == config.CartStoreMongo {
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", err)
		}
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Failed to disconnect MongoDB", err)
			}
		}()
		mongoCarts := repository.NewMongoCartRepository(mongoDB)
		if err := mongoCarts.EnsureIndexes(ctx); err != nil {
			logger.Fatal("Failed to create cart indexes", err)
		}
		cartRepo = mongoCarts
	}

	// Redis is optional: without it carts are uncached and logout is client-side.
	var (
		cartCache service.CartCache
		revoker   service.TokenRevoker
		revoked   middleware.RevocationChecker
	)
	if cfg.Redis.Enabled {
		if err := pkgredis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without cache and token blacklist", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer pkgredis.Close()
			cartCache = cache.NewCartCache(pkgredis.GetClient())
			blacklist := pkgredis.NewTokenBlacklist(pkgredis.GetClient())
			revoker = blacklist
			revoked = blacklist
		}
	}

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", err)
		}
	}()

	var gateway service.PaymentGateway
	stripeClient, err := stripe.NewClient(&stripe.Config{
		SecretKey:     cfg.Payment.Stripe.SecretKey,
		WebhookSecret: cfg.Payment.Stripe.WebhookSecret,
		BackendURL:    cfg.Payment.Stripe.BackendURL,
		SuccessURL:    cfg.Server.ClientURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     cfg.Server.ClientURL + "/cancel",
	}, nil)
	if err != nil {
		logger.Warn("Stripe is not configured, checkout endpoints will answer 503", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		gateway = stripeClient
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Services
	cartService := service.NewCartService(cartRepo, productRepo, cartCache, cfg.Payment.Stripe.Currency)
	authService := service.NewAuthService(
		userRepo,
		cartService,
		revoker,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	passwordResetService := service.NewPasswordResetService(resetRepo, userRepo, nil, cfg.Server.ClientURL)
	productService := service.NewProductService(productRepo, cfg.Payment.Stripe.Currency)
	favoriteService := service.NewFavoriteService(favoriteRepo, productRepo, cartService)
	checkoutService := service.NewCheckoutService(
		checkoutRepo,
		cartService,
		gateway,
		publisher,
		hub,
		service.CheckoutConfig{
			Currency: cfg.Payment.Stripe.Currency,
			Timeout:  cfg.Payment.Stripe.Timeout,
		},
	)

	controllers := router.Controllers{
		Auth:     controller.NewAuthController(authService, passwordResetService),
		Product:  controller.NewProductController(productService),
		Cart:     controller.NewCartController(cartService),
		Favorite: controller.NewFavoriteController(favoriteService),
		Checkout: controller.NewCheckoutController(checkoutService),
		Order:    controller.NewOrderController(checkoutService),
		WS:       controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
	}

	if cfg.S3.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(ctx, &cfg.S3)
		if err != nil {
			logger.Warn("S3 storage unavailable, image endpoints disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			controllers.Image = controller.NewImageController(s3Storage)
		}
	}

	reconciler := scheduler.NewCheckoutReconciler(checkoutService, cfg.Scheduler.ReconcileSchedule)
	if gateway != nil {
		if err := reconciler.Start(); err != nil {
			logger.Fatal("Failed to start checkout reconciler", err)
		}
		defer reconciler.Stop()
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revoked)
	engine := router.NewRouter(controllers, authMiddleware, cfg).Setup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}

	logger.Info("Server stopped successfully")
}

func newPublisher(cfg *config.Config) events.Publisher {
	switch cfg.Events.Broker {
	case config.BrokerRabbitMQ:
		publisher, err := events.NewRabbitMQPublisher(cfg.Events.RabbitMQURL, cfg.Events.Topic)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, order events will only be logged", map[string]interface{}{
				"error": err.Error(),
			})
			return events.NewNoopPublisher()
		}
		return publisher
	case config.BrokerKafka:
		return events.NewKafkaPublisher(cfg.Events.Topic, cfg.Events.KafkaBrokers...)
	default:
		return events.NewNoopPublisher()
	}
}
