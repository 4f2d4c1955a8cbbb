package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencePattern = regexp.MustCompile(`^BK[0-9A-F]{8}$`)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed},
		BookingStatusConfirmed: {BookingStatusCancelled},
	}

	for _, from := range AllBookingStatuses {
		for _, to := range AllBookingStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusFailed.IsTerminal())
	assert.False(t, BookingStatusPending.IsTerminal())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, s)

	_, err = ParseBookingStatus("EXPIRED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewBooking(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ret := time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)
	b := NewBooking(BookingParams{
		FlightNumber:  "KE123",
		Origin:        "ICN",
		Destination:   "LAX",
		DepartureDate: time.Date(2025, 3, 8, 23, 0, 0, 0, time.UTC),
		DepartureTime: TimeOfDay{Hour: 14, Minute: 30},
		ReturnDate:    &ret,
		TotalAmount:   120050,
		Currency:      "USD",
	}, now)

	assert.Regexp(t, referencePattern, b.Reference)
	assert.Equal(t, BookingStatusPending, b.Status)
	assert.Equal(t, now, b.BookingTimestamp)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), b.DepartureDate)
	require.NotNil(t, b.ReturnDate)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *b.ReturnDate)
}

func TestNewBookingReference_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		ref := NewBookingReference()
		require.Regexp(t, referencePattern, ref)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", tod.String())
	assert.Equal(t, 7*time.Hour+5*time.Minute, tod.Duration())

	tod, err = ParseTimeOfDay("23:59:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59}, tod)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	assert.True(t, TimeOfDay{Hour: 9}.Before(TimeOfDay{Hour: 9, Minute: 1}))
	assert.False(t, TimeOfDay{Hour: 9}.Before(TimeOfDay{Hour: 9}))
}

func TestBookingPage_TotalPages(t *testing.T) {
	assert.Equal(t, 0, BookingPage{Total: 10}.TotalPages())
	assert.Equal(t, 1, BookingPage{Size: 20, Total: 20}.TotalPages())
	assert.Equal(t, 2, BookingPage{Size: 20, Total: 21}.TotalPages())
}
