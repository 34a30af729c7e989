package booking

import (
	"context"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	roomRepo "innkeep/database/repository/room"
	"innkeep/models"

	"go.uber.org/zap"
)

// ReservationService manages the booking lifecycle: creation against the
// availability check, and the operational status transitions that run
// independently of payment.
type ReservationService interface {
	Reserve(ctx context.Context, req models.ReservationRequest) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	AvailableRooms(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]models.Room, error)

	Confirm(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	CheckIn(ctx context.Context, id string) (*models.Booking, error)
	CheckOut(ctx context.Context, id string) (*models.Booking, error)

	// MarkNoShows flags room bookings still pending past their check-in
	// date and frees their nights. Returns the number of bookings flagged.
	MarkNoShows(ctx context.Context, before time.Time) (int, error)
}

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	Bookings bookingRepo.BookingRepository
	Rooms    roomRepo.RoomRepository
	Logger   *zap.Logger
}

func NewReservationService(bookings bookingRepo.BookingRepository, rooms roomRepo.RoomRepository, logger *zap.Logger) *DefaultReservationService {
	return &DefaultReservationService{Bookings: bookings, Rooms: rooms, Logger: logger}
}
