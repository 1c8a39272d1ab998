package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/handler"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups everything SetupRoutes mounts
type Handlers struct {
	Networx         *handler.WebhookHandler
	SecureProcessor *handler.WebhookHandler
	Balance         *handler.BalanceHandler
	Health          *handler.HealthHandler
	// RequireAuth guards the balance poll. It must reject unauthenticated callers.
	RequireAuth gin.HandlerFunc
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Health)

	webhooks := router.Group("/api/webhooks")
	{
		webhooks.POST("/networx", h.Networx.Receive)
		webhooks.GET("/networx", h.Networx.Probe)

		webhooks.POST("/secure-processor", h.SecureProcessor.Receive)
		webhooks.GET("/secure-processor", h.SecureProcessor.Probe)
	}

	payment := router.Group("/api/payment", h.RequireAuth)
	{
		// GET /api/payment/verify-balance?transactionId=&expectedMinBalance=
		payment.GET("/verify-balance", h.Balance.VerifyBalance)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, timeProvider coreport.TimeProvider, allowedOrigins []string) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger, timeProvider))
	router.Use(cors.New(corsConfig(allowedOrigins)))
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}
