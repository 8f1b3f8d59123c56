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

	"github.com/ikkim/handmade-storefront/config"
	"github.com/ikkim/handmade-storefront/internal/app/controller"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/internal/db"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	"github.com/ikkim/handmade-storefront/internal/router"
	"github.com/ikkim/handmade-storefront/internal/scheduler"
	"github.com/ikkim/handmade-storefront/internal/storage"
	ws "github.com/ikkim/handmade-storefront/internal/websocket"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/ikkim/handmade-storefront/pkg/mailer"
	"github.com/ikkim/handmade-storefront/pkg/payment/stripe"
	"github.com/ikkim/handmade-storefront/pkg/redis"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting storefront server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"cart_storage": cfg.Cart.Storage,
	})

	// Cart persistence
	persister, closeStorage, healthCheck := openCartStorage(cfg)
	defer closeStorage()

	registry := cart.NewRegistry(persister, cfg.Cart.IdleTimeout)

	// Live cart updates
	hub := ws.NewHub()
	go hub.Run()

	// External services
	strapiClient, err := strapi.NewClient(strapi.Config{
		BaseURL:  cfg.Strapi.BaseURL,
		APIToken: cfg.Strapi.APIToken,
		Timeout:  cfg.Strapi.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create Strapi client", err)
	}

	stripeClient, err := stripe.NewClient(stripe.Config{
		SecretKey:  cfg.Payment.Stripe.SecretKey,
		BaseURL:    cfg.Payment.Stripe.BaseURL,
		SuccessURL: cfg.Payment.Stripe.SuccessURL,
		CancelURL:  cfg.Payment.Stripe.CancelURL,
		Currency:   cfg.Payment.Stripe.Currency,
	})
	if err != nil {
		logger.Fatal("Failed to create Stripe client", err)
	}

	emailSender, err := mailer.New(mailer.Config{
		Provider:      cfg.Email.Provider,
		PostmarkToken: cfg.Email.PostmarkToken,
		SendGridKey:   cfg.Email.SendGridKey,
		From:          cfg.Email.From,
	})
	if err != nil {
		logger.Fatal("Failed to create mailer", err)
	}

	// Initialize services
	catalogService := service.NewCatalogService(strapiClient, cfg.Strapi.BaseURL)
	cartService := service.NewCartService(registry, catalogService, hub)
	checkoutService := service.NewCheckoutService(registry, stripeClient, strapiClient)
	contentService := service.NewContentService(strapiClient, cfg.Strapi.BaseURL)
	notificationService := service.NewNotificationService(emailSender, openReceiptArchive(cfg), cfg.Email.ShopCopyTo, 30*time.Second)

	registry.OnChange(cartService.PublishChange)
	hub.SetSnapshotFunc(func(sessionID string) interface{} {
		return cartService.GetCart(context.Background(), sessionID)
	})

	// Initialize controllers
	catalogController := controller.NewCatalogController(catalogService)
	cartController := controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins)
	checkoutController := controller.NewCheckoutController(checkoutService)
	contentController := controller.NewContentController(contentService)
	webhookController := controller.NewWebhookController(notificationService)

	// Initialize middleware
	cartSession := middleware.NewCartSessionMiddleware(
		cfg.Cart.SessionSecret,
		cfg.Cart.CookieName,
		cfg.Cart.CookieMaxAge,
		cfg.Cart.SecureCookie,
	)

	// Setup router
	r := router.NewRouter(
		catalogController,
		cartController,
		checkoutController,
		contentController,
		webhookController,
		cartSession,
		cfg,
	)
	if healthCheck != nil {
		r.AddHealthCheck(cfg.Cart.Storage, healthCheck)
	}
	engine := r.Setup()

	// Expire idle carts
	expiryScheduler := scheduler.NewCartExpiryScheduler(registry, cfg.Cart.SweepSchedule)
	if err := expiryScheduler.Start(); err != nil {
		logger.Fatal("Failed to start cart expiry scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	expiryScheduler.Stop()
	registry.Flush()
	notificationService.Wait()
	hub.Stop()

	logger.Info("Server stopped successfully")
}

// openCartStorage connects the configured cart backend. It returns the
// persister, a close func and an optional health check.
func openCartStorage(cfg *config.Config) (cart.Persister, func(), router.HealthCheck) {
	switch cfg.Cart.Storage {
	case config.StorageRedis:
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		closeFn := func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}
		return cart.NewRedisPersister(redis.GetClient(), cfg.Cart.PersistTTL), closeFn, redis.Ping

	case config.StoragePostgres:
		if err := db.Initialize(&cfg.Database); err != nil {
			logger.Fatal("Failed to initialize database", err)
		}
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to run migrations", err)
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}
		return cart.NewSQLPersister(db.GetDB()), closeFn, db.Ping

	default:
		logger.Warn("Cart storage is memory only; carts are lost on restart")
		return cart.NopPersister{}, func() {}, nil
	}
}

// openReceiptArchive returns nil when no bucket is configured
func openReceiptArchive(cfg *config.Config) service.ReceiptArchiver {
	if cfg.S3.Bucket == "" {
		return nil
	}

	client, err := storage.NewS3Client(context.Background(), cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
	if err != nil {
		logger.Warn("Receipt archive disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return storage.NewReceiptArchive(client, cfg.S3.Bucket, cfg.S3.ReceiptPrefix)
}
