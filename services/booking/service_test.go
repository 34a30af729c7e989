package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	roomRepo "innkeep/database/repository/room"
	"innkeep/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBookingRepo mimics the store including the room-night guard: inserting a
// booking whose nights collide with held nights yields ErrRoomConflict, the
// same way the unique index does.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	nights   map[string]string // "roomId|night" -> bookingId
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		bookings: make(map[string]*models.Booking),
		nights:   make(map[string]string),
	}
}

func nightKeys(b *models.Booking) []string {
	if b.RoomID == nil {
		return nil
	}
	var keys []string
	for night := b.CheckIn; night.Before(b.CheckOut); night = night.Add(24 * time.Hour) {
		keys = append(keys, *b.RoomID+"|"+night.Format("2006-01-02"))
	}
	return keys
}

func (r *memBookingRepo) CreateWithGuard(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := nightKeys(booking)
	for _, k := range keys {
		if _, held := r.nights[k]; held {
			return bookingRepo.ErrRoomConflict
		}
	}
	for _, k := range keys {
		r.nights[k] = booking.ID
	}
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
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	b.PaymentStatus = update.PaymentStatus
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
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) ReleaseGuard(ctx context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, holder := range r.nights {
		if holder == bookingID {
			delete(r.nights, k)
		}
	}
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

type memRoomRepo struct {
	rooms map[string]*models.Room
}

func newMemRoomRepo(rooms ...*models.Room) *memRoomRepo {
	repo := &memRoomRepo{rooms: make(map[string]*models.Room)}
	for _, r := range rooms {
		repo.rooms[r.ID] = r
	}
	return repo
}

func (r *memRoomRepo) GetByID(ctx context.Context, id string) (*models.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, roomRepo.ErrNotFound
	}
	return room, nil
}

func (r *memRoomRepo) ListByType(ctx context.Context, roomType string) ([]models.Room, error) {
	var out []models.Room
	for _, room := range r.rooms {
		if room.UnderMaintenance {
			continue
		}
		if roomType != "" && room.Type != roomType {
			continue
		}
		out = append(out, *room)
	}
	return out, nil
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func newTestService(rooms ...*models.Room) (*DefaultReservationService, *memBookingRepo) {
	repo := newMemBookingRepo()
	return NewReservationService(repo, newMemRoomRepo(rooms...), zap.NewNop()), repo
}

func strPtr(s string) *string { return &s }

func standardRoom() *models.Room {
	return &models.Room{ID: "r1", Number: "101", Type: "standard", NightlyRate: 5000}
}

func reserveRoom(t *testing.T, svc *DefaultReservationService, roomID, checkIn, checkOut string) *models.Booking {
	t.Helper()
	b, err := svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:     strPtr(roomID),
		CheckIn:    day(t, checkIn),
		CheckOut:   day(t, checkOut),
		GuestEmail: "guest@example.com",
	})
	require.NoError(t, err)
	return b
}

func TestReserveComputesPriceAndDefaults(t *testing.T) {
	svc, _ := newTestService(standardRoom())

	b, err := svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:        strPtr("r1"),
		CheckIn:       day(t, "2025-06-01"),
		CheckOut:      day(t, "2025-06-05"),
		GuestEmail:    "guest@example.com",
		ServicesPrice: 1500,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Regexp(t, `^BK-[0-9A-F]{8}$`, b.BookingReference)
	assert.Equal(t, 4, b.Nights)
	assert.Equal(t, int64(20000), b.RoomPrice)
	assert.Equal(t, int64(21500), b.TotalPrice)
	assert.Equal(t, "usd", b.Currency)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
}

func TestReserveServiceOnlyBookingNeedsNoRoom(t *testing.T) {
	svc, _ := newTestService()

	b, err := svc.Reserve(context.Background(), models.ReservationRequest{
		GuestEmail:    "guest@example.com",
		ServicesPrice: 3000,
	})
	require.NoError(t, err)
	assert.False(t, b.HasRoom())
	assert.Equal(t, int64(3000), b.TotalPrice)
}

func TestReserveRejectsBadWindow(t *testing.T) {
	svc, _ := newTestService(standardRoom())

	_, err := svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:     strPtr("r1"),
		CheckIn:    day(t, "2025-06-05"),
		CheckOut:   day(t, "2025-06-01"),
		GuestEmail: "guest@example.com",
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestReserveRejectsOverlapAndAllowsTurnover(t *testing.T) {
	svc, _ := newTestService(standardRoom())
	reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	_, err := svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:     strPtr("r1"),
		CheckIn:    day(t, "2025-06-04"),
		CheckOut:   day(t, "2025-06-08"),
		GuestEmail: "guest@example.com",
	})
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	// Check-in on the prior guest's check-out day is fine.
	next := reserveRoom(t, svc, "r1", "2025-06-05", "2025-06-08")
	assert.Equal(t, 3, next.Nights)
}

func TestReserveRejectsMaintenanceAndUnknownRoom(t *testing.T) {
	down := standardRoom()
	down.UnderMaintenance = true
	svc, _ := newTestService(down)

	_, err := svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:     strPtr("r1"),
		CheckIn:    day(t, "2025-06-01"),
		CheckOut:   day(t, "2025-06-03"),
		GuestEmail: "guest@example.com",
	})
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	_, err = svc.Reserve(context.Background(), models.ReservationRequest{
		RoomID:     strPtr("nope"),
		CheckIn:    day(t, "2025-06-01"),
		CheckOut:   day(t, "2025-06-03"),
		GuestEmail: "guest@example.com",
	})
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestCancelFreesNightsForRebooking(t *testing.T) {
	svc, _ := newTestService(standardRoom())
	b := reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	cancelled, err := svc.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// Cancelling again is a no-op.
	again, err := svc.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, again.Status)

	// The window is bookable again.
	reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _ := newTestService(standardRoom())
	b := reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	confirmed, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	checkedIn, err := svc.CheckIn(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedIn, checkedIn.Status)

	// Cancelling after check-in is rejected.
	_, err = svc.Cancel(context.Background(), b.ID)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	checkedOut, err := svc.CheckOut(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedOut, checkedOut.Status)

	// Confirming a checked-out booking makes no sense.
	_, err = svc.Confirm(context.Background(), b.ID)
	assert.ErrorAs(t, err, &validationErr)
}

func TestAvailableRoomsFiltersBookedAndMaintenance(t *testing.T) {
	free := &models.Room{ID: "r2", Number: "102", Type: "standard", NightlyRate: 5000}
	down := &models.Room{ID: "r3", Number: "103", Type: "standard", NightlyRate: 5000, UnderMaintenance: true}
	svc, _ := newTestService(standardRoom(), free, down)
	reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	rooms, err := svc.AvailableRooms(context.Background(), "standard", day(t, "2025-06-02"), day(t, "2025-06-04"))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "r2", rooms[0].ID)
}

func TestMarkNoShowsSweepsOverduePending(t *testing.T) {
	svc, repo := newTestService(standardRoom())
	overdue := reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	flagged, err := svc.MarkNoShows(context.Background(), day(t, "2025-06-03"))
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	b, err := repo.GetByID(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusNoShow, b.Status)

	// A second sweep finds nothing.
	flagged, err = svc.MarkNoShows(context.Background(), day(t, "2025-06-03"))
	require.NoError(t, err)
	assert.Zero(t, flagged)

	// The nights are free again.
	reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")
}

func TestGetByReference(t *testing.T) {
	svc, _ := newTestService(standardRoom())
	b := reserveRoom(t, svc, "r1", "2025-06-01", "2025-06-05")

	got, err := svc.GetByReference(context.Background(), b.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = svc.GetByReference(context.Background(), "BK-MISSING1")
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}
