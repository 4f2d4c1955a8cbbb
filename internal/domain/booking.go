package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

// AllBookingStatuses lists statuses in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusFailed,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus accepts any letter case.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		// providers sometimes send seconds
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before compares two times of day.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.minutes() < other.minutes()
}

// Duration is the offset of t from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.minutes()) * time.Minute
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// TimeOfDayOf extracts the wall clock of ts in its own location.
func TimeOfDayOf(ts time.Time) TimeOfDay {
	return TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute()}
}

// DateLayout is the calendar date format used on every surface.
const DateLayout = "2006-01-02"

// DateOf truncates ts to its calendar date, expressed as midnight UTC.
func DateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Booking is one reservation attempt. Derived predicates live in rules.go.
type Booking struct {
	ID        int64
	Reference string

	FlightNumber  string
	Origin        string
	Destination   string
	DepartureDate time.Time
	DepartureTime TimeOfDay
	ReturnDate    *time.Time
	ReturnTime    *TimeOfDay

	PassengerName  string
	PassengerEmail string
	PassengerPhone string

	Provider    string
	TotalAmount int64 // minor units
	Currency    string

	Status           BookingStatus
	BookingTimestamp time.Time
	BookingResponse  string
}

// BookingParams carries everything a caller supplies for a new booking.
type BookingParams struct {
	FlightNumber   string
	Origin         string
	Destination    string
	DepartureDate  time.Time
	DepartureTime  TimeOfDay
	ReturnDate     *time.Time
	ReturnTime     *TimeOfDay
	PassengerName  string
	PassengerEmail string
	PassengerPhone string
	Provider       string
	TotalAmount    int64
	Currency       string
}

// NewBooking builds a PENDING booking with a fresh reference stamped at now.
func NewBooking(p BookingParams, now time.Time) Booking {
	return Booking{
		Reference:        NewBookingReference(),
		FlightNumber:     p.FlightNumber,
		Origin:           p.Origin,
		Destination:      p.Destination,
		DepartureDate:    DateOf(p.DepartureDate),
		DepartureTime:    p.DepartureTime,
		ReturnDate:       dateOfPtr(p.ReturnDate),
		ReturnTime:       p.ReturnTime,
		PassengerName:    p.PassengerName,
		PassengerEmail:   p.PassengerEmail,
		PassengerPhone:   p.PassengerPhone,
		Provider:         p.Provider,
		TotalAmount:      p.TotalAmount,
		Currency:         p.Currency,
		Status:           BookingStatusPending,
		BookingTimestamp: now,
	}
}

// NewBookingReference returns "BK" followed by 8 uppercase hex digits.
func NewBookingReference() string {
	return "BK" + strings.ToUpper(uuid.NewString()[:8])
}

func dateOfPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

// BookingPage is one page of the full booking listing. Page is zero based.
type BookingPage struct {
	Items []Booking
	Page  int
	Size  int
	Total int64
}

func (p BookingPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

type BookingStatistics struct {
	Total    int64
	ByStatus map[BookingStatus]int64
}
