package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	roomRepo "innkeep/database/repository/room"
	"innkeep/models"
	"innkeep/services/availability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reserve creates a booking in pending/pending state. For room bookings the
// window is validated, the room checked against the availability oracle, and
// the insert goes through the transactional room-night guard — the oracle's
// answer alone is advisory, the guard is what actually prevents a
// double-booking under concurrency.
func (s *DefaultReservationService) Reserve(ctx context.Context, req models.ReservationRequest) (*models.Booking, error) {
	nights := availability.Nights(req.CheckIn, req.CheckOut)
	if req.RoomID != nil && nights <= 0 {
		return nil, NewValidationError("checkOut must be after checkIn")
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	booking := &models.Booking{
		ID:               uuid.New().String(),
		BookingReference: newReference(),
		RoomID:           req.RoomID,
		CheckIn:          req.CheckIn,
		CheckOut:         req.CheckOut,
		Nights:           nights,
		GuestEmail:       req.GuestEmail,
		ServicesPrice:    req.ServicesPrice,
		Currency:         req.Currency,
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if req.RoomID != nil {
		room, err := s.Rooms.GetByID(ctx, *req.RoomID)
		if err != nil {
			if errors.Is(err, roomRepo.ErrNotFound) {
				return nil, NewNotFoundError(fmt.Sprintf("room %s not found", *req.RoomID))
			}
			return nil, fmt.Errorf("failed to load room: %w", err)
		}
		if room.UnderMaintenance {
			return nil, NewConflictError(fmt.Sprintf("room %s is under maintenance", room.ID))
		}

		existing, err := s.Bookings.GetByRoomAndWindow(ctx, room.ID, req.CheckIn, req.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("failed to load overlapping bookings: %w", err)
		}
		if !availability.IsRoomAvailable(req.CheckIn, req.CheckOut, existing) {
			return nil, NewConflictError(fmt.Sprintf("room %s is not available for the requested window", room.ID))
		}

		booking.RoomPrice = int64(nights) * room.NightlyRate
	}
	booking.TotalPrice = booking.RoomPrice + booking.ServicesPrice

	if err := s.Bookings.CreateWithGuard(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrRoomConflict) {
			// Lost the race after passing the oracle check.
			return nil, NewConflictError("room was booked by a concurrent reservation")
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.Logger.Info("reservation created",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.BookingReference),
		zap.Int("nights", nights))
	return booking, nil
}

// Get returns a booking by system id.
func (s *DefaultReservationService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewNotFoundError("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetByReference returns a booking by its human-readable reference.
func (s *DefaultReservationService) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewNotFoundError("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// AvailableRooms filters the catalog down to rooms free for the window.
// Maintenance rooms never reach the oracle; the repository excludes them.
func (s *DefaultReservationService) AvailableRooms(ctx context.Context, roomType string, checkIn, checkOut time.Time) ([]models.Room, error) {
	if availability.Nights(checkIn, checkOut) <= 0 {
		return nil, NewValidationError("checkOut must be after checkIn")
	}

	rooms, err := s.Rooms.ListByType(ctx, roomType)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	bookingsByRoom := make(map[string][]models.Booking, len(rooms))
	for _, room := range rooms {
		existing, err := s.Bookings.GetByRoomAndWindow(ctx, room.ID, checkIn, checkOut)
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings for room %s: %w", room.ID, err)
		}
		bookingsByRoom[room.ID] = existing
	}

	return availability.FilterAvailableRooms(rooms, checkIn, checkOut, bookingsByRoom), nil
}

// Confirm moves a pending booking to confirmed.
func (s *DefaultReservationService) Confirm(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusConfirmed, models.BookingStatusPending)
}

// Cancel cancels a booking and frees its reserved nights. Cancelling an
// already-cancelled booking is a no-op.
func (s *DefaultReservationService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case models.BookingStatusCancelled:
		return current, nil
	case models.BookingStatusCheckedIn, models.BookingStatusCheckedOut:
		return nil, NewValidationError(fmt.Sprintf("cannot cancel a booking in status %q", current.Status))
	}

	updated, err := s.Bookings.UpdateStatus(ctx, id, models.BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if err := s.Bookings.ReleaseGuard(ctx, id); err != nil {
		// The booking is cancelled; stale guard nights only block rebooking
		// and are cleaned up by the sweeper, so log rather than fail.
		s.Logger.Error("failed to release room nights after cancel",
			zap.String("bookingId", id), zap.Error(err))
	}

	s.Logger.Info("booking cancelled", zap.String("bookingId", id))
	return updated, nil
}

// CheckIn moves a pending or confirmed booking to checked_in.
func (s *DefaultReservationService) CheckIn(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusCheckedIn,
		models.BookingStatusPending, models.BookingStatusConfirmed)
}

// CheckOut moves a checked_in booking to checked_out.
func (s *DefaultReservationService) CheckOut(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusCheckedOut, models.BookingStatusCheckedIn)
}

// MarkNoShows flags overdue pending bookings and frees their nights.
func (s *DefaultReservationService) MarkNoShows(ctx context.Context, before time.Time) (int, error) {
	overdue, err := s.Bookings.ListOverdue(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bookings: %w", err)
	}

	flagged := 0
	for _, b := range overdue {
		if _, err := s.Bookings.UpdateStatus(ctx, b.ID, models.BookingStatusNoShow); err != nil {
			s.Logger.Error("failed to flag no-show", zap.String("bookingId", b.ID), zap.Error(err))
			continue
		}
		if err := s.Bookings.ReleaseGuard(ctx, b.ID); err != nil {
			s.Logger.Error("failed to release room nights for no-show",
				zap.String("bookingId", b.ID), zap.Error(err))
		}
		flagged++
	}
	if flagged > 0 {
		s.Logger.Info("no-show sweep complete", zap.Int("flagged", flagged))
	}
	return flagged, nil
}

func (s *DefaultReservationService) transition(ctx context.Context, id, next string, allowedFrom ...string) (*models.Booking, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	allowed := false
	for _, from := range allowedFrom {
		if current.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, NewValidationError(fmt.Sprintf("cannot move booking from %q to %q", current.Status, next))
	}

	updated, err := s.Bookings.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	s.Logger.Info("booking status changed",
		zap.String("bookingId", id),
		zap.String("from", current.Status),
		zap.String("to", next))
	return updated, nil
}

// newReference builds the short human-readable code shown on confirmations.
func newReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
