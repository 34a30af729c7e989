package bookingRepo

import (
	"context"
	"log"
	"time"

	"innkeep/database"
	"innkeep/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository is the store contract the payment writers and the
// reservation service consume: lookup by id, by reference, by room+window,
// and partial updates with return-updated-document semantics.
type BookingRepository interface {
	// CreateWithGuard inserts the booking together with one room-night guard
	// document per night inside a transaction. A guard collision means the
	// room was taken by a concurrent reservation and yields ErrRoomConflict.
	CreateWithGuard(ctx context.Context, booking *models.Booking) error

	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)

	// GetByRoomAndWindow returns the room's occupying bookings (cancelled
	// and no-show excluded) whose half-open stay window intersects [from, to).
	GetByRoomAndWindow(ctx context.Context, roomID string, from, to time.Time) ([]models.Booking, error)

	// UpdatePayment applies an idempotent partial overwrite of the payment
	// fields and returns the updated booking.
	UpdatePayment(ctx context.Context, id string, update models.PaymentUpdate) (*models.Booking, error)

	// UpdateStatus sets the operational status and returns the updated booking.
	UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error)

	// ReleaseGuard removes the booking's room-night guard documents, freeing
	// the nights for rebooking after a cancellation.
	ReleaseGuard(ctx context.Context, bookingID string) error

	// ListOverdue returns room bookings still pending past their check-in
	// date; the no-show sweeper feeds on this.
	ListOverdue(ctx context.Context, before time.Time) ([]models.Booking, error)
}

type MongoBookingRepo struct {
	bookingColl   *mongo.Collection
	roomNightColl *mongo.Collection
}

// NewMongoBookingRepo returns a new BookingRepository instance using MongoDB.
func NewMongoBookingRepo(dbName string) BookingRepository {
	db := database.MongoClient.Database(dbName)
	repo := &MongoBookingRepo{
		bookingColl:   db.Collection("bookings"),
		roomNightColl: db.Collection("room_nights"),
	}
	if err := repo.ensureIndexes(); err != nil {
		log.Fatalf("booking repo: %v", err)
	}
	return repo
}
