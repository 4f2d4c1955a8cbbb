package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindByReference(ctx context.Context, reference string) (*domain.Booking, error)
	FindByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	FindByEmailAndName(ctx context.Context, email, name string) ([]domain.Booking, error)
	FindByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	FindByProvider(ctx context.Context, provider string) ([]domain.Booking, error)
	FindActiveDuplicates(ctx context.Context, email, flightNumber string, departureDate time.Time) ([]domain.Booking, error)
	FindByFlightAndDate(ctx context.Context, flightNumber string, departureDate time.Time) ([]domain.Booking, error)
	FindByDepartureRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	List(ctx context.Context, offset, limit int) ([]domain.Booking, int64, error)
	CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error)
	UpdateStatus(ctx context.Context, reference string, from, to domain.BookingStatus, responseNote string) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const activeBookingIndex = "bookings_active_uniq"

const bookingColumns = `id, booking_reference, flight_number, origin, destination,
	departure_date, departure_time, return_date, return_time,
	passenger_name, passenger_email, passenger_phone,
	api_provider, total_amount_minor, currency,
	status, booking_timestamp, booking_response`

func (r *PGBookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (
			booking_reference, flight_number, origin, destination,
			departure_date, departure_time, return_date, return_time,
			passenger_name, passenger_email, passenger_phone,
			api_provider, total_amount_minor, currency,
			status, booking_timestamp, booking_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		b.Reference, b.FlightNumber, b.Origin, b.Destination,
		b.DepartureDate, toPGTime(&b.DepartureTime), b.ReturnDate, toPGTime(b.ReturnTime),
		b.PassengerName, b.PassengerEmail, b.PassengerPhone,
		b.Provider, b.TotalAmount, b.Currency,
		b.Status, b.BookingTimestamp, b.BookingResponse,
	).Scan(&b.ID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *PGBookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference=$1`, reference)
}

func (r *PGBookingRepository) FindByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE passenger_email=$1 ORDER BY booking_timestamp DESC, id DESC`, email)
}

func (r *PGBookingRepository) FindByEmailAndName(ctx context.Context, email, name string) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE passenger_email=$1 AND passenger_name=$2 ORDER BY booking_timestamp DESC, id DESC`, email, name)
}

func (r *PGBookingRepository) FindByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 ORDER BY booking_timestamp DESC, id DESC`, status)
}

func (r *PGBookingRepository) FindByProvider(ctx context.Context, provider string) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE api_provider=$1 ORDER BY booking_timestamp DESC, id DESC`, provider)
}

func (r *PGBookingRepository) FindActiveDuplicates(ctx context.Context, email, flightNumber string, departureDate time.Time) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE passenger_email=$1 AND flight_number=$2 AND departure_date=$3 AND status IN ($4, $5)`,
		email, flightNumber, departureDate, domain.BookingStatusPending, domain.BookingStatusConfirmed)
}

func (r *PGBookingRepository) FindByFlightAndDate(ctx context.Context, flightNumber string, departureDate time.Time) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE flight_number=$1 AND departure_date=$2 ORDER BY booking_timestamp DESC, id DESC`, flightNumber, departureDate)
}

func (r *PGBookingRepository) FindByDepartureRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE departure_date BETWEEN $1 AND $2 ORDER BY departure_date, departure_time, id`, from, to)
}

func (r *PGBookingRepository) List(ctx context.Context, offset, limit int) ([]domain.Booking, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.findMany(ctx, `SELECT `+bookingColumns+` FROM bookings
		ORDER BY booking_timestamp DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PGBookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BookingStatus]int64, len(domain.AllBookingStatuses))
	for rows.Next() {
		var (
			status domain.BookingStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// UpdateStatus moves a booking from one status to another and appends
// responseNote to its response log. The row is locked for the duration of the
// check, so a booking that left from in the meantime yields ErrConcurrentUpdate.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, reference string, from, to domain.BookingStatus, responseNote string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current domain.BookingStatus
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE booking_reference=$1 FOR UPDATE`, reference).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, reference)
	}
	if err != nil {
		return nil, err
	}
	if current != from {
		return nil, fmt.Errorf("%w: %s is %s, expected %s", domain.ErrConcurrentUpdate, reference, current, from)
	}

	b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET status=$2, booking_response = booking_response || $3
		WHERE booking_reference=$1
		RETURNING `+bookingColumns, reference, to, responseNote))
	if err != nil {
		return nil, mapWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) findMany(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var (
		b          domain.Booking
		departure  pgtype.Time
		returnTime pgtype.Time
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.FlightNumber, &b.Origin, &b.Destination,
		&b.DepartureDate, &departure, &b.ReturnDate, &returnTime,
		&b.PassengerName, &b.PassengerEmail, &b.PassengerPhone,
		&b.Provider, &b.TotalAmount, &b.Currency,
		&b.Status, &b.BookingTimestamp, &b.BookingResponse,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	if t := fromPGTime(departure); t != nil {
		b.DepartureTime = *t
	}
	b.ReturnTime = fromPGTime(returnTime)
	return b, nil
}

func toPGTime(t *domain.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPGTime(t pgtype.Time) *domain.TimeOfDay {
	if !t.Valid {
		return nil
	}
	minutes := t.Microseconds / int64(time.Minute/time.Microsecond)
	return &domain.TimeOfDay{Hour: int(minutes / 60), Minute: int(minutes % 60)}
}

// mapWriteError turns the live-booking uniqueness violation into ErrDuplicateBooking.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeBookingIndex {
		return fmt.Errorf("%w: an active booking already exists for this passenger, flight and date", domain.ErrDuplicateBooking)
	}
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
