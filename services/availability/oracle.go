package availability

import (
	"time"

	"innkeep/models"
)

// The oracle is a pure decision layer: it never touches the store and never
// errors. Callers are responsible for validating the window (positive number
// of nights), excluding cancelled bookings from the conflict set, and
// filtering out rooms under maintenance before asking.

// Overlaps reports whether two half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect. Equal boundaries do not overlap, so same-day
// turnover (one guest checks out the morning another checks in) is allowed.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Nights returns the number of nights covered by [checkIn, checkOut),
// rounding any partial day up. Zero or negative windows return 0; rejecting
// them is the caller's job.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// IsRoomAvailable reports whether the candidate window conflicts with any of
// the given bookings. Cancelled and no-show bookings no longer occupy the
// room and never block a window.
func IsRoomAvailable(checkIn, checkOut time.Time, existing []models.Booking) bool {
	for _, b := range existing {
		if b.Status == models.BookingStatusCancelled || b.Status == models.BookingStatusNoShow {
			continue
		}
		if Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			return false
		}
	}
	return true
}

// FilterAvailableRooms returns the subset of rooms free for the window given
// a lookup of each room's non-cancelled bookings. Rooms with no entry in the
// lookup are treated as free. Returns an empty slice, never nil, when
// nothing qualifies.
func FilterAvailableRooms(rooms []models.Room, checkIn, checkOut time.Time, bookingsByRoom map[string][]models.Booking) []models.Room {
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if IsRoomAvailable(checkIn, checkOut, bookingsByRoom[r.ID]) {
			out = append(out, r)
		}
	}
	return out
}
