package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"innkeep/models"
	"innkeep/services/booking"
	"innkeep/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the reservation lifecycle over HTTP.
type BookingHandler struct {
	Service booking.ReservationService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.ReservationService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// reservationPayload is the wire form of a reservation request. Dates arrive
// as calendar days, not timestamps.
type reservationPayload struct {
	RoomID        *string `json:"roomId"`
	CheckIn       string  `json:"checkIn"`
	CheckOut      string  `json:"checkOut"`
	GuestEmail    string  `json:"guestEmail" binding:"required,email"`
	Currency      string  `json:"currency"`
	ServicesPrice int64   `json:"servicesPrice"`
}

// ReserveHandler handles POST /api/bookings.
func (h *BookingHandler) ReserveHandler(c *gin.Context) {
	var payload reservationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req := models.ReservationRequest{
		RoomID:        payload.RoomID,
		GuestEmail:    payload.GuestEmail,
		Currency:      payload.Currency,
		ServicesPrice: payload.ServicesPrice,
	}
	if payload.RoomID != nil {
		var err error
		req.CheckIn, err = parseDay(payload.CheckIn)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid checkIn date", "expected YYYY-MM-DD")
			return
		}
		req.CheckOut, err = parseDay(payload.CheckOut)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid checkOut date", "expected YYYY-MM-DD")
			return
		}
	}

	created, err := h.Service.Reserve(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetByReferenceHandler handles GET /api/bookings/reference/:reference.
func (h *BookingHandler) GetByReferenceHandler(c *gin.Context) {
	b, err := h.Service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmHandler handles PUT /api/bookings/:id/confirm.
func (h *BookingHandler) ConfirmHandler(c *gin.Context) {
	h.applyTransition(c, h.Service.Confirm)
}

// CancelHandler handles PUT /api/bookings/:id/cancel.
func (h *BookingHandler) CancelHandler(c *gin.Context) {
	h.applyTransition(c, h.Service.Cancel)
}

// CheckInHandler handles PUT /api/bookings/:id/checkin.
func (h *BookingHandler) CheckInHandler(c *gin.Context) {
	h.applyTransition(c, h.Service.CheckIn)
}

// CheckOutHandler handles PUT /api/bookings/:id/checkout.
func (h *BookingHandler) CheckOutHandler(c *gin.Context) {
	h.applyTransition(c, h.Service.CheckOut)
}

func (h *BookingHandler) applyTransition(c *gin.Context, op func(ctx context.Context, id string) (*models.Booking, error)) {
	b, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AvailableRoomsHandler handles GET /api/rooms/available.
func (h *BookingHandler) AvailableRoomsHandler(c *gin.Context) {
	checkIn, err := parseDay(c.Query("checkIn"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid checkIn date", "expected YYYY-MM-DD")
		return
	}
	checkOut, err := parseDay(c.Query("checkOut"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid checkOut date", "expected YYYY-MM-DD")
		return
	}

	rooms, err := h.Service.AvailableRooms(c.Request.Context(), c.Query("type"), checkIn, checkOut)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

func parseDay(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func respondBookingError(c *gin.Context, err error) {
	var (
		conflictErr   *booking.ConflictError
		validationErr *booking.ValidationError
		notFoundErr   *booking.NotFoundError
	)
	switch {
	case errors.As(err, &conflictErr):
		utils.JSONError(c, http.StatusConflict, "conflict", conflictErr.Message)
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "invalid request", validationErr.Message)
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, "not found", notFoundErr.Message)
	default:
		utils.JSONError(c, http.StatusInternalServerError, "unexpected error", "")
	}
}
