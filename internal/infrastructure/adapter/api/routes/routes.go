package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups everything the router serves
type Handlers struct {
	Payment      *handler.PaymentHandler
	Webhook      *handler.WebhookHandler
	Notification *handler.NotificationHandler
	Health       *handler.HealthHandler
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, handlers Handlers, auth middleware.AuthConfig) {
	if handlers.Health != nil {
		router.GET("/healthz", handlers.Health.Live)
		router.GET("/readyz", handlers.Health.Ready)
	}

	// The gateway authenticates with its body signature, not a bearer token
	router.POST("/payments/webhook", handlers.Webhook.HandleWebhook)

	payments := router.Group("/payments", middleware.Auth(auth))
	{
		payments.POST("/create", handlers.Payment.CreatePayment)
		payments.GET("/partial/all", handlers.Payment.ListOpenPartialPayments)
		payments.GET("/partial/:id", handlers.Payment.GetOpenPartialPayment)
		payments.GET("/client/:clientId", handlers.Payment.ListClientPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.POST("/:id/add-transaction", handlers.Payment.AddTransaction)
	}

	notifications := router.Group("/notifications")
	{
		notifications.GET("", middleware.Auth(auth), handlers.Notification.List)
		notifications.PATCH("/:id/read", middleware.Auth(auth), handlers.Notification.MarkRead)

		streamAuth := auth
		streamAuth.AllowQueryToken = true
		notifications.GET("/stream", middleware.Auth(streamAuth), handlers.Notification.Stream)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, allowedOrigins []string) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(allowedOrigins...))
}
