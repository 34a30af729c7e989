package models

import "time"

// ReservationRequest is the reservation flow's input after the handler has
// parsed dates. RoomID nil means a pure service booking with no room stay.
type ReservationRequest struct {
	RoomID        *string
	CheckIn       time.Time
	CheckOut      time.Time
	GuestEmail    string
	Currency      string
	ServicesPrice int64 // minor units
}
