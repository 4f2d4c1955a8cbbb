package domain

import (
	"fmt"
	"time"
)

func IsRoundTrip(b Booking) bool {
	return b.ReturnDate != nil
}

func IsConfirmed(b Booking) bool { return b.Status == BookingStatusConfirmed }
func IsCancelled(b Booking) bool { return b.Status == BookingStatusCancelled }
func IsPending(b Booking) bool   { return b.Status == BookingStatusPending }
func IsFailed(b Booking) bool    { return b.Status == BookingStatusFailed }

// CanBeCancelled holds for PENDING and CONFIRMED bookings.
func CanBeCancelled(b Booking) bool {
	return IsPending(b) || IsConfirmed(b)
}

// IsPastDeparture compares the departure against now's calendar date and wall
// clock, so now must already be in the service time zone.
func IsPastDeparture(b Booking, now time.Time) bool {
	today := DateOf(now)
	dep := DateOf(b.DepartureDate)
	if dep.Before(today) {
		return true
	}
	return dep.Equal(today) && b.DepartureTime.Before(TimeOfDayOf(now))
}

// IsInternationalFlight reports whether origin and destination lie in
// different countries. known is false when either airport is not in the
// lookup table.
func IsInternationalFlight(b Booking) (international, known bool) {
	return InternationalRoute(b.Origin, b.Destination)
}

// ValidateForCreate applies the business rules that need the current date.
func ValidateForCreate(p BookingParams, now time.Time) error {
	today := DateOf(now)
	if DateOf(p.DepartureDate).Before(today) {
		return fmt.Errorf("%w: departure date %s is in the past", ErrInvalidBooking, p.DepartureDate.Format(DateLayout))
	}
	if p.ReturnDate != nil && DateOf(*p.ReturnDate).Before(DateOf(p.DepartureDate)) {
		return fmt.Errorf("%w: return date cannot be before departure date", ErrInvalidBooking)
	}
	if p.TotalAmount <= 0 {
		return fmt.Errorf("%w: total amount must be positive", ErrInvalidBooking)
	}
	if p.Origin != "" && p.Origin == p.Destination {
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidBooking)
	}
	return nil
}
