package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	ReserveHandler        gin.HandlerFunc
	GetBookingHandler     gin.HandlerFunc
	GetByReferenceHandler gin.HandlerFunc
	ConfirmHandler        gin.HandlerFunc
	CancelHandler         gin.HandlerFunc
	CheckInHandler        gin.HandlerFunc
	CheckOutHandler       gin.HandlerFunc
	AvailableRoomsHandler gin.HandlerFunc

	// Payment endpoints
	CreateIntentHandler  gin.HandlerFunc
	MarkPaidHandler      gin.HandlerFunc
	WebhookHandler       gin.HandlerFunc
	PaymentStatusHandler gin.HandlerFunc

	// Auth endpoints
	IssueServiceTokenHandler gin.HandlerFunc
}

// NewHandlerBundle wires the concrete handlers into the bundle consumed by
// route registration.
func NewHandlerBundle(bookings *BookingHandler, payments *PaymentHandler, auth *ServiceAuthHandler) *HandlerBundle {
	return &HandlerBundle{
		ReserveHandler:        bookings.ReserveHandler,
		GetBookingHandler:     bookings.GetBookingHandler,
		GetByReferenceHandler: bookings.GetByReferenceHandler,
		ConfirmHandler:        bookings.ConfirmHandler,
		CancelHandler:         bookings.CancelHandler,
		CheckInHandler:        bookings.CheckInHandler,
		CheckOutHandler:       bookings.CheckOutHandler,
		AvailableRoomsHandler: bookings.AvailableRoomsHandler,

		CreateIntentHandler:  payments.CreateIntentHandler,
		MarkPaidHandler:      payments.MarkPaidHandler,
		WebhookHandler:       payments.WebhookHandler,
		PaymentStatusHandler: payments.PaymentStatusHandler,

		IssueServiceTokenHandler: auth.IssueServiceTokenHandler,
	}
}
