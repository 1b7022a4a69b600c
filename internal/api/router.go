package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/hosted-checkout/internal/handlers"
	"github.com/akylbek/payment-system/hosted-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/hosted-checkout/internal/middleware"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

const ServiceName = "hosted-checkout"

type Dependencies struct {
	Gateway     interfaces.CheckoutGateway
	Idempotency interfaces.IdempotencyRepository
	Publisher   interfaces.OutcomePublisher
	AppScheme   string
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", handlers.Health(ServiceName))

	// Checkout routes
	checkoutHandler := handlers.NewCheckoutHandler(deps.Gateway, deps.Idempotency, deps.Publisher, deps.AppScheme)
	api := r.Group("/api")
	{
		api.POST("/prepare-checkout", middleware.IdempotencyMiddleware(deps.Idempotency), checkoutHandler.PrepareCheckout)
		api.GET("/payment-status", checkoutHandler.PaymentStatus)
		api.GET("/payment-result", checkoutHandler.PaymentResult)
	}

	return r
}
