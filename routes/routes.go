package routes

import (
	"net/http"
	"time"

	"innkeep/handlers"
	"innkeep/middleware"
	"innkeep/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the reservation lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.ReserveHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.GET("/reference/:reference", hb.GetByReferenceHandler)
		api.PUT("/:id/confirm", hb.ConfirmHandler)
		api.PUT("/:id/cancel", hb.CancelHandler)
		api.PUT("/:id/checkin", hb.CheckInHandler)
		api.PUT("/:id/checkout", hb.CheckOutHandler)
	}
}

// RegisterRoomRoutes sets up room search endpoints.
func RegisterRoomRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/rooms")
	{
		api.GET("/available", hb.AvailableRoomsHandler)
	}
}

// RegisterPaymentRoutes sets up the payment authorization and reconciliation
// endpoints. The webhook stays outside the service-auth chain: its caller is
// authenticated by the processor signature on the raw body, nothing else.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.POST("/webhook", hb.WebhookHandler)
		api.GET("/status/:bookingId", hb.PaymentStatusHandler)

		authed := api.Group("")
		authed.Use(middleware.OptionalServiceAuth())
		authed.POST("/intent", hb.CreateIntentHandler)
		authed.POST("/mark-paid", hb.MarkPaidHandler)
	}
}

// RegisterAuthRoutes sets up the service-token exchange.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/service-token", hb.IssueServiceTokenHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterRoomRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAuthRoutes(r, hb)
}
