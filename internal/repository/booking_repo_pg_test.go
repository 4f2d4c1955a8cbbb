package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewSearchRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSearchRepository(pool)
	assert.NotNil(t, repo)
}

func TestPGTimeRoundTrip(t *testing.T) {
	in := domain.TimeOfDay{Hour: 14, Minute: 30}
	pg := toPGTime(&in)
	assert.True(t, pg.Valid)
	assert.Equal(t, int64(52200000000), pg.Microseconds)

	out := fromPGTime(pg)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)

	assert.False(t, toPGTime(nil).Valid)
	assert.Nil(t, fromPGTime(pgtype.Time{}))
}

func TestMapWriteError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: activeBookingIndex}
	assert.ErrorIs(t, mapWriteError(dup), domain.ErrDuplicateBooking)

	other := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_reference_key"}
	assert.NotErrorIs(t, mapWriteError(other), domain.ErrDuplicateBooking)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapWriteError(plain))
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			if v, ok := r.values[i].(int64); ok {
				*p = v
			}
		case *string:
			if v, ok := r.values[i].(string); ok {
				*p = v
			}
		case *domain.BookingStatus:
			if v, ok := r.values[i].(domain.BookingStatus); ok {
				*p = v
			}
		case *pgtype.Time:
			if v, ok := r.values[i].(pgtype.Time); ok {
				*p = v
			}
		}
	}
	return nil
}

func TestScanBooking_TimeColumns(t *testing.T) {
	values := make([]any, 18)
	values[0] = int64(7)
	values[1] = "BK12345678"
	values[6] = pgtype.Time{Microseconds: (9*60 + 5) * 60 * 1000000, Valid: true}
	values[8] = pgtype.Time{}
	values[15] = domain.BookingStatusConfirmed

	b, err := scanBooking(fakeRow{values: values})
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, "BK12345678", b.Reference)
	assert.Equal(t, domain.TimeOfDay{Hour: 9, Minute: 5}, b.DepartureTime)
	assert.Nil(t, b.ReturnTime)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)

	_, err = scanBooking(fakeRow{err: errors.New("scan failed")})
	assert.Error(t, err)
}

func TestSchema_ContainsActiveBookingIndex(t *testing.T) {
	schema := Schema()
	assert.True(t, strings.Contains(schema, activeBookingIndex))
	assert.Contains(t, schema, "WHERE status IN ('PENDING', 'CONFIRMED')")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS flight_searches")
}
