package models

import "time"

// Booking status values. Operational status and payment status are
// independent axes: a booking can be cancelled while its payment is
// still pending, and vice versa.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusCancelled  = "cancelled"
	BookingStatusCheckedIn  = "checked_in"
	BookingStatusCheckedOut = "checked_out"
	BookingStatusNoShow     = "no_show"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment source tags. The webhook is the authoritative writer: a value it
// wrote is never overwritten by the client or service paths.
const (
	PaymentSourceClient  = "client"
	PaymentSourceService = "service"
	PaymentSourceWebhook = "webhook"
)

// Booking is the central reservation record. The stay window is half-open:
// [CheckIn, CheckOut) — a checkout date equal to another booking's check-in
// is not a conflict (same-day turnover).
type Booking struct {
	ID               string    `bson:"id" json:"id"`
	BookingReference string    `bson:"bookingReference" json:"bookingReference"`
	RoomID           *string   `bson:"roomId,omitempty" json:"roomId,omitempty"` // nil = pure service booking, no room stay
	CheckIn          time.Time `bson:"checkIn" json:"checkIn"`
	CheckOut         time.Time `bson:"checkOut" json:"checkOut"`
	Nights           int       `bson:"nights" json:"nights"`
	GuestEmail       string    `bson:"guestEmail,omitempty" json:"guestEmail,omitempty"`

	// Money fields are minor currency units (cents).
	RoomPrice     int64  `bson:"roomPrice" json:"roomPrice"`
	ServicesPrice int64  `bson:"servicesPrice" json:"servicesPrice"`
	TotalPrice    int64  `bson:"totalPrice" json:"totalPrice"`
	PaidAmount    int64  `bson:"paidAmount" json:"paidAmount"`
	Currency      string `bson:"currency" json:"currency"`
	PaymentMethod string `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`

	Status        string `bson:"status" json:"status"`
	PaymentStatus string `bson:"paymentStatus" json:"paymentStatus"`
	PaymentSource string `bson:"paymentSource,omitempty" json:"paymentSource,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasRoom reports whether the booking occupies a physical room.
func (b *Booking) HasRoom() bool {
	return b.RoomID != nil && *b.RoomID != ""
}

// RoomNight is the per-night reservation guard document. A unique compound
// index on (roomId, night) makes two overlapping reservations collide at
// insert time, closing the check-then-insert race that a pure availability
// check cannot.
type RoomNight struct {
	RoomID    string    `bson:"roomId" json:"roomId"`
	Night     string    `bson:"night" json:"night"` // "2006-01-02"
	BookingID string    `bson:"bookingId" json:"bookingId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
