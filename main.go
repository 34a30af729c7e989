// File: innkeep/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeep/config"
	"innkeep/cron"
	"innkeep/database"
	bookingRepoPkg "innkeep/database/repository/booking"
	roomRepoPkg "innkeep/database/repository/room"
	"innkeep/handlers"
	"innkeep/routes"
	bookingSvc "innkeep/services/booking"
	"innkeep/services/payment"
	"innkeep/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitDedupCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo(config.AppConfig.DatabaseName)
	roomRepo := roomRepoPkg.NewMongoRoomRepo(config.AppConfig.DatabaseName)

	// services.
	reservationService := bookingSvc.NewReservationService(bookingRepo, roomRepo, logger)

	tokens := payment.NewTokenAuthority(config.AppConfig.PaymentTokenSecret, payment.DefaultTokenTTL)
	intentBroker := payment.NewIntentBroker(payment.StripeProcessor{}, tokens, logger)
	reconcileService := payment.NewReconcileService(bookingRepo, tokens, utils.GetCacheClient(), logger)
	webhookIngestor := payment.NewWebhookIngestor(
		bookingRepo,
		utils.GetDedupClient(),
		utils.GetCacheClient(),
		config.AppConfig.StripeWebhookSecret,
		logger,
	)

	// handlers.
	bookingHandler := handlers.NewBookingHandler(reservationService, logger)
	paymentHandler := handlers.NewPaymentHandler(intentBroker, reconcileService, webhookIngestor, logger)
	authHandler := handlers.NewServiceAuthHandler(logger)

	handlerBundle := handlers.NewHandlerBundle(bookingHandler, paymentHandler, authHandler)

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background no-show sweeper.
	cron.InitNoShowWorker(reservationService)

	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient(), utils.GetDedupClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
