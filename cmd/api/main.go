package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/messaging"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
	"github.com/amirhossein-jamali/client-portal/internal/domain/usecase/notification"
	"github.com/amirhossein-jamali/client-portal/internal/domain/usecase/payment"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/gateway/chargily"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	eventbus "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/messaging"
	livehub "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/realtime"
	timeProvider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/config"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.IsProduction(), cfg.Logger.Level)
	defer func() { _ = appLogger.Flush() }()

	if cfg.DotEnvFile != "" {
		appLogger.Debug("Loaded environment from .env file", map[string]any{"path": cfg.DotEnvFile})
	} else {
		appLogger.Debug("No .env file found, using process environment", nil)
	}

	if warnings := cfg.Warnings(); len(warnings) > 0 {
		appLogger.Warn("Potential issues in production configuration", map[string]any{"warnings": warnings})
	}

	tp := timeProvider.NewRealTimeProvider()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the database
	dbManager := database.NewManager(database.FromAppConfig(cfg), appLogger, tp)
	if _, err := dbManager.ConnectContext(ctx); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer dbManager.Close()
	dbManager.StartMonitoring(time.Minute)

	// Run migrations
	if err := migration.NewMigrationManager(dbManager.DB(), appLogger, tp).MigrateAll(ctx); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if cfg.Database.SeedDemoData && !cfg.IsProduction() {
		if err := migration.SeedDemoData(ctx, dbManager.DB()); err != nil {
			appLogger.Error("Failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	// Pushes and ledger events leave the request path once the ledger has committed
	hooks := database.NewHookRunner(appLogger, cfg.Database.HookWorkers, cfg.Database.HookQueueSize, cfg.Database.HookTimeout)
	uow := dbManager.CreateUnitOfWork().WithHookRunner(hooks)

	// Live delivery: local SSE hub, bridged through Redis when several instances run
	hub := livehub.NewHub(cfg.Realtime.BufferSize, appLogger)
	pusher := newPusher(ctx, cfg, hub, appLogger)

	registry := notification.NewRegistry(uow, tp, appLogger)
	dispatcher := notification.NewDispatcher(uow, registry, pusher, tp, appLogger)
	notificationService := notification.NewService(uow, dispatcher, appLogger)

	publisher := newPublisher(cfg, appLogger)
	defer func() { _ = publisher.Close() }()

	gateway := chargily.NewClient(chargily.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		SecretKey:  cfg.Gateway.SecretKey,
		Currency:   cfg.Payment.Currency,
		SuccessURL: cfg.Gateway.SuccessURL,
		FailureURL: cfg.Gateway.FailureURL,
		WebhookURL: cfg.Gateway.WebhookURL,
		Locale:     cfg.Gateway.Locale,
		Timeout:    cfg.Gateway.Timeout,
	}, appLogger)

	paymentService := payment.NewService(uow, gateway, dispatcher, publisher, tp, appLogger, payment.ServiceConfig{
		BackURL:            cfg.Payment.BackURL,
		Currency:           cfg.Payment.Currency,
		WebhookTimeout:     cfg.Payment.WebhookTimeout,
		StaffUserIDs:       cfg.Notifications.StaffUserIDs,
		SequencerWorkers:   cfg.Payment.SequencerWorkers,
		SequencerQueueSize: cfg.Payment.SequencerQueueSize,
	})

	// Initialize Gin router
	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, cfg.Server.AllowedOrigins)
	routes.SetupRoutes(router, routes.Handlers{
		Payment:      handler.NewPaymentHandler(paymentService, appLogger),
		Webhook:      handler.NewWebhookHandler(paymentService, appLogger),
		Notification: handler.NewNotificationHandler(notificationService, registry, hub, cfg.Realtime.HeartbeatInterval, appLogger),
		Health:       handler.NewHealthHandler(dbManager),
	}, middleware.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Open streams would hold Shutdown until its deadline
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}

	appLogger.Info("Draining webhook sequencer...", nil)
	paymentService.Shutdown()
	appLogger.Info("Draining after-commit hooks...", nil)
	hooks.Shutdown()
	cancel()

	appLogger.Info("Server exited gracefully", nil)
}

// newPusher returns the hub itself, or a Redis bridge around it when Redis is configured
func newPusher(ctx context.Context, cfg *config.Config, hub *livehub.Hub, appLogger core.Logger) realtime.Pusher {
	if cfg.Realtime.RedisAddr == "" {
		return hub
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Realtime.RedisAddr,
		Password: cfg.Realtime.RedisPassword,
		DB:       cfg.Realtime.RedisDB,
	})
	bridge := livehub.NewRedisBridge(hub, client, cfg.Realtime.RedisChannel, appLogger)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := bridge.Ping(pingCtx); err != nil {
		appLogger.Warn("Redis unreachable, live delivery limited to this instance", map[string]any{
			"addr":  cfg.Realtime.RedisAddr,
			"error": err.Error(),
		})
		_ = client.Close()
		return hub
	}

	go func() {
		defer client.Close()
		if err := bridge.Run(ctx); err != nil {
			appLogger.Error("Live event relay stopped", map[string]any{"error": err.Error()})
		}
	}()
	return bridge
}

// newPublisher connects to Kafka when brokers are configured and logs events otherwise
func newPublisher(cfg *config.Config, appLogger core.Logger) messaging.EventPublisher {
	if len(cfg.Messaging.Brokers) == 0 {
		return eventbus.NewLogPublisher(appLogger)
	}

	publisher, err := eventbus.NewKafkaPublisher(eventbus.KafkaConfig{
		Brokers:  cfg.Messaging.Brokers,
		Topic:    cfg.Messaging.Topic,
		ClientID: cfg.Messaging.ClientID,
	}, appLogger)
	if err != nil {
		appLogger.Error("Kafka unavailable, ledger events will only be logged", map[string]any{"error": err.Error()})
		return eventbus.NewLogPublisher(appLogger)
	}
	return publisher
}
