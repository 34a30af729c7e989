package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	"innkeep/models"
)

// memBookingRepo is an in-memory BookingRepository for the payment tests.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	failUpdates bool
}

func newMemBookingRepo(seed ...*models.Booking) *memBookingRepo {
	repo := &memBookingRepo{bookings: make(map[string]*models.Booking)}
	for _, b := range seed {
		clone := *b
		repo.bookings[b.ID] = &clone
	}
	return repo
}

func (r *memBookingRepo) CreateWithGuard(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingReference == reference {
			clone := *b
			return &clone, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (r *memBookingRepo) GetByRoomAndWindow(ctx context.Context, roomID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.RoomID == nil || *b.RoomID != roomID {
			continue
		}
		if b.Status == models.BookingStatusCancelled || b.Status == models.BookingStatusNoShow {
			continue
		}
		if b.CheckIn.Before(to) && b.CheckOut.After(from) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) UpdatePayment(ctx context.Context, id string, update models.PaymentUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates {
		return nil, errors.New("store unavailable")
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	b.PaymentStatus = update.PaymentStatus
	if update.PaidAmount != nil {
		b.PaidAmount = *update.PaidAmount
	}
	if update.PaymentMethod != "" {
		b.PaymentMethod = update.PaymentMethod
	}
	b.PaymentSource = update.Source
	b.UpdatedAt = time.Now()
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) ReleaseGuard(ctx context.Context, bookingID string) error {
	return nil
}

func (r *memBookingRepo) ListOverdue(ctx context.Context, before time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusPending && b.RoomID != nil && b.CheckIn.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}
