package handlers

import (
	"errors"
	"io"
	"net/http"

	"innkeep/models"
	"innkeep/services/payment"
	"innkeep/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes the payment core over HTTP: intent creation, the
// optimistic mark-paid reconciliation path, the authoritative webhook, and
// the status poll.
type PaymentHandler struct {
	Broker    *payment.IntentBroker
	Reconcile *payment.ReconcileService
	Ingestor  *payment.WebhookIngestor
	Logger    *zap.Logger
}

func NewPaymentHandler(broker *payment.IntentBroker, reconcile *payment.ReconcileService, ingestor *payment.WebhookIngestor, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Broker: broker, Reconcile: reconcile, Ingestor: ingestor, Logger: logger}
}

// CreateIntentHandler handles POST /api/payments/intent.
func (h *PaymentHandler) CreateIntentHandler(c *gin.Context) {
	var req models.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	result, err := h.Broker.Create(c.Request.Context(), req)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkPaidHandler handles POST /api/payments/mark-paid. Trust comes from the
// service-auth middleware when a valid service token was presented; everyone
// else must carry a capability token scoped to the booking.
func (h *PaymentHandler) MarkPaidHandler(c *gin.Context) {
	var req models.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	trusted := c.GetBool("trustedCaller")
	booking, err := h.Reconcile.MarkPaid(c.Request.Context(), req, trusted)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// WebhookHandler handles POST /api/payments/webhook. The body must stay raw
// until the signature is verified.
func (h *PaymentHandler) WebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<16))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "unreadable payload", err.Error())
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := h.Ingestor.Ingest(c.Request.Context(), payload, sigHeader); err != nil {
		var authErr *payment.AuthError
		if errors.As(err, &authErr) {
			utils.JSONError(c, http.StatusBadRequest, "signature verification failed", "")
			return
		}
		// Anything else is a transient failure: respond 5xx so the
		// processor redelivers the event.
		h.Logger.Error("webhook ingestion failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "event not processed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// PaymentStatusHandler handles GET /api/payments/status/:bookingId.
func (h *PaymentHandler) PaymentStatusHandler(c *gin.Context) {
	status, err := h.Reconcile.PaymentStatus(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookingId": c.Param("bookingId"), "paymentStatus": status})
}

// respondPaymentError maps the payment error taxonomy onto HTTP statuses.
func respondPaymentError(c *gin.Context, err error) {
	var (
		configErr     *payment.ConfigError
		validationErr *payment.ValidationError
		authErr       *payment.AuthError
		notFoundErr   *payment.NotFoundError
		upstreamErr   *payment.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "invalid request", validationErr.Message)
	case errors.As(err, &authErr):
		utils.JSONError(c, http.StatusUnauthorized, "not authorized", authErr.Message)
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, "not found", notFoundErr.Message)
	case errors.As(err, &configErr):
		utils.JSONError(c, http.StatusInternalServerError, "server misconfigured", "")
	case errors.As(err, &upstreamErr):
		utils.JSONError(c, http.StatusBadGateway, "upstream failure, retry later", "")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "unexpected error", "")
	}
}
