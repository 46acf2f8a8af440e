package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"beautybook-backend/internal/shared/middleware"
	"beautybook-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	allowOrigin := os.Getenv("CORS_ALLOW_ORIGIN")
	if allowOrigin == "" {
		allowOrigin = "*"
	}

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(allowOrigin),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		// Gateway callback; authenticated by HMAC signature, not JWT.
		v1.POST("/webhooks/payment", c.PaymentHandler.Webhook)

		setupBookingRoutes(v1, c)
		setupPaymentRoutes(v1, c)
		setupWalletRoutes(v1, c)
		setupPromotionRoutes(v1, c)
		setupNotificationRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

func setupBookingRoutes(v1 *gin.RouterGroup, c *container.Container) {
	bookings := v1.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		bookings.POST("", c.BookingHandler.CreateBooking)
		bookings.GET("/my", c.BookingHandler.ListMyBookings)
		bookings.GET("/:id", c.BookingHandler.GetBooking)
		bookings.GET("/:id/cancellation-quote", c.BookingHandler.QuoteCancellation)
		bookings.POST("/:id/cancel", c.BookingHandler.CancelBooking)

		// Provider-side transitions; the service checks ownership.
		bookings.POST("/:id/accept", c.BookingHandler.AcceptBooking)
		bookings.POST("/:id/reject", c.BookingHandler.RejectBooking)
		bookings.POST("/:id/complete", c.BookingHandler.CompleteBooking)
	}

	providers := v1.Group("/providers")
	providers.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		providers.GET("/:providerId/bookings", c.BookingHandler.ListProviderBookings)
	}
}

func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	payments := v1.Group("/payments")
	payments.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		payments.POST("/initiate", c.PaymentHandler.InitiatePayment)
		payments.POST("/wallet", c.PaymentHandler.PayWithWallet)
		payments.GET("/bookings/:bookingId", c.PaymentHandler.ListBookingPayments)
	}
}

func setupWalletRoutes(v1 *gin.RouterGroup, c *container.Container) {
	wallet := v1.Group("/wallet")
	wallet.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		wallet.GET("/balance", c.WalletHandler.GetBalance)
		wallet.GET("/transactions", c.WalletHandler.ListTransactions)
		wallet.POST("/deposit", c.WalletHandler.Deposit)
	}
}

func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	promotions := v1.Group("/promotions")
	promotions.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		promotions.POST("/validate", c.PromotionHandler.ValidatePromo)
	}
}

func setupNotificationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	notifications := v1.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		notifications.GET("", c.NotifHandler.List)
		notifications.PATCH("/:id/read", c.NotifHandler.MarkRead)
	}
}

func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.POST("/promotions", c.PromotionHandler.CreatePromo)
		admin.GET("/promotions", c.PromotionHandler.ListPromos)
		admin.POST("/payments/bookings/:bookingId/refund", c.PaymentHandler.RefundPayment)
	}
}

// healthCheckHandler reports database and redis health. Redis being down
// degrades features but does not fail the check.
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		dbStatus := "ok"
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			dbStatus = "unreachable"
		}

		redisStatus := "ok"
		if err := c.Redis.HealthCheck(ctx.Request.Context()); err != nil {
			redisStatus = "unreachable"
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}

		ctx.JSON(status, gin.H{
			"status":   dbStatus,
			"database": dbStatus,
			"redis":    redisStatus,
			"version":  c.Config.App.Version,
		})
	}
}
