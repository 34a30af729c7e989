package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innkeep/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRoomConflict is returned when the room-night guard rejects an insert:
// another booking already holds at least one of the requested nights.
var ErrRoomConflict = errors.New("room already booked for part of the requested window")

// ErrNotFound is returned when no booking matches the lookup.
var ErrNotFound = errors.New("booking not found")

// CreateWithGuard inserts the booking and its per-night guard documents in a
// single transaction. The guard insert is ordered; a duplicate key on any
// night aborts the whole transaction.
func (r *MongoBookingRepo) CreateWithGuard(ctx context.Context, booking *models.Booking) error {
	client := r.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := r.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}

		if !booking.HasRoom() {
			return nil // pure service booking, nothing to guard
		}

		nights := make([]interface{}, 0, booking.Nights)
		for d := booking.CheckIn; d.Before(booking.CheckOut); d = d.AddDate(0, 0, 1) {
			nights = append(nights, models.RoomNight{
				RoomID:    *booking.RoomID,
				Night:     d.Format("2006-01-02"),
				BookingID: booking.ID,
				CreatedAt: time.Now(),
			})
		}
		if len(nights) == 0 {
			return nil
		}
		if _, err := r.roomNightColl.InsertMany(sc, nights, options.InsertMany().SetOrdered(true)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrRoomConflict
			}
			return fmt.Errorf("insert room-night guard failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrRoomConflict) {
			return ErrRoomConflict
		}
		return fmt.Errorf("reservation transaction failed: %w", err)
	}
	return nil
}

// GetByID returns a booking by its system id.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// GetByReference returns a booking by its human-readable reference.
func (r *MongoBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.bookingColl.FindOne(ctx, bson.M{"bookingReference": reference}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking by reference %s: %w", reference, err)
	}
	return &booking, nil
}

// GetByRoomAndWindow returns the room's occupying bookings whose half-open
// window intersects [from, to): checkIn < to AND checkOut > from. Cancelled
// and no-show bookings have released the room and are excluded.
func (r *MongoBookingRepo) GetByRoomAndWindow(ctx context.Context, roomID string, from, to time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"roomId":   roomID,
		"status":   bson.M{"$nin": []string{models.BookingStatusCancelled, models.BookingStatusNoShow}},
		"checkIn":  bson.M{"$lt": to},
		"checkOut": bson.M{"$gt": from},
	}
	cursor, err := r.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding overlapping bookings: %w", err)
	}
	return bookings, nil
}

// UpdatePayment overwrites the payment fields named in the update and
// returns the booking as stored afterwards. Overwrites are idempotent:
// re-applying the same update yields the same document.
func (r *MongoBookingRepo) UpdatePayment(ctx context.Context, id string, update models.PaymentUpdate) (*models.Booking, error) {
	set := bson.M{
		"paymentStatus": update.PaymentStatus,
		"paymentSource": update.Source,
		"updatedAt":     time.Now(),
	}
	if update.PaidAmount != nil {
		set["paidAmount"] = *update.PaidAmount
	}
	if update.PaymentMethod != "" {
		set["paymentMethod"] = update.PaymentMethod
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := r.bookingColl.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating payment fields for booking %s: %w", id, err)
	}
	return &booking, nil
}

// UpdateStatus sets the operational status and returns the updated booking.
func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := r.bookingColl.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating status for booking %s: %w", id, err)
	}
	return &booking, nil
}

// ReleaseGuard frees the booking's reserved nights.
func (r *MongoBookingRepo) ReleaseGuard(ctx context.Context, bookingID string) error {
	if _, err := r.roomNightColl.DeleteMany(ctx, bson.M{"bookingId": bookingID}); err != nil {
		return fmt.Errorf("error releasing room nights for booking %s: %w", bookingID, err)
	}
	return nil
}

// ListOverdue returns room bookings still pending past their check-in date.
func (r *MongoBookingRepo) ListOverdue(ctx context.Context, before time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status":  models.BookingStatusPending,
		"roomId":  bson.M{"$ne": nil},
		"checkIn": bson.M{"$lt": before},
	}
	cursor, err := r.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding overdue bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding overdue bookings: %w", err)
	}
	return bookings, nil
}
