package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/gateway"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, bool, error)
	GetBookingByID(ctx context.Context, id int64) (*domain.Booking, bool, error)
	GetBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	GetBookingsByEmailAndName(ctx context.Context, email, name string) ([]domain.Booking, error)
	GetBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	GetBookingsByFlight(ctx context.Context, flightNumber string, departureDate time.Time) ([]domain.Booking, error)
	GetBookingsByProvider(ctx context.Context, provider string) ([]domain.Booking, error)
	GetAllBookings(ctx context.Context, page, size int) (domain.BookingPage, error)
	GetStatistics(ctx context.Context) (domain.BookingStatistics, error)
	CancelBooking(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error)
}

// FlightSearcher is the availability source consulted before booking.
type FlightSearcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// Locker serialises create attempts for one passenger, flight and date.
type Locker interface {
	AcquireBookingLock(ctx context.Context, email, flightNumber string, departureDate time.Time, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, email, flightNumber string, departureDate time.Time) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// CreateBookingInput is a request that already passed structural validation.
type CreateBookingInput domain.BookingParams

// FailedBookingError is returned by CreateBooking once the attempt has been
// recorded as FAILED. Reference is empty if that record could not be stored.
type FailedBookingError struct {
	Reference string
	Err       error
}

func (e *FailedBookingError) Error() string {
	return e.Err.Error()
}

func (e *FailedBookingError) Unwrap() error {
	return e.Err
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            FlightSearcher
	gateway            gateway.ProviderGateway
	locker             Locker
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	externalTimeout    time.Duration
	strictAvailability bool
	defaultPageSize    int
	location           *time.Location
	now                func() time.Time
	log                *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithLocker(locker Locker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithStrictAvailability rejects bookings whose availability check errored
// instead of letting them through.
func WithStrictAvailability(strict bool) BookingServiceOption {
	return func(s *BookingService) {
		s.strictAvailability = strict
	}
}

func WithExternalTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.externalTimeout = d
	}
}

func WithDefaultPageSize(size int) BookingServiceOption {
	return func(s *BookingService) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

// WithLocation sets the zone in which "today" and departure times are judged.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights FlightSearcher,
	gw gateway.ProviderGateway,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		bookings:        bookings,
		flights:         flights,
		gateway:         gw,
		lockTTL:         30 * time.Second,
		externalTimeout: 5 * time.Second,
		defaultPageSize: DefaultPageSize,
		location:        time.UTC,
		now:             time.Now,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking validates, checks availability and duplicates, confirms with
// the provider and stores the booking. Any failure leaves a FAILED record and
// is returned wrapped in *FailedBookingError.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.Create")
	defer span.End()
	span.SetAttributes(attribute.String("flight.number", input.FlightNumber))

	params := domain.BookingParams(input)
	now := s.clock()

	created, err := s.create(ctx, params, now)
	if err != nil {
		span.RecordError(err)
		return nil, s.recordFailure(ctx, params, now, err)
	}

	span.SetAttributes(attribute.String("booking.reference", created.Reference))
	s.log.Info("booking confirmed",
		zap.String("reference", created.Reference),
		zap.String("flight", created.FlightNumber))
	s.publish(ctx, kafka.EventBookingConfirmed, *created, created.BookingResponse)
	return created, nil
}

func (s *BookingService) create(ctx context.Context, p domain.BookingParams, now time.Time) (*domain.Booking, error) {
	if err := domain.ValidateForCreate(p, now); err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, p); err != nil {
		return nil, err
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireBookingLock(ctx, p.PassengerEmail, p.FlightNumber, p.DepartureDate, s.lockTTL)
		switch {
		case err != nil:
			// The unique index on live bookings still rejects the loser.
			s.log.Warn("booking lock unavailable", zap.Error(err))
		case !ok:
			return nil, fmt.Errorf("%w: another booking for %s on flight %s is in progress",
				domain.ErrDuplicateBooking, p.PassengerEmail, p.FlightNumber)
		default:
			defer func() {
				if err := s.locker.ReleaseBookingLock(context.WithoutCancel(ctx), p.PassengerEmail, p.FlightNumber, p.DepartureDate); err != nil {
					s.log.Warn("failed to release booking lock", zap.Error(err))
				}
			}()
		}
	}

	dups, err := s.bookings.FindActiveDuplicates(ctx, p.PassengerEmail, p.FlightNumber, domain.DateOf(p.DepartureDate))
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if len(dups) > 0 {
		return nil, fmt.Errorf("%w: %s already holds %s for flight %s on %s",
			domain.ErrDuplicateBooking, p.PassengerEmail, dups[0].Reference, p.FlightNumber, p.DepartureDate.Format(domain.DateLayout))
	}

	b := domain.NewBooking(p, now)

	callCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	message, err := s.gateway.ConfirmBooking(callCtx, b)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrExternalConfirmationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalConfirmationFailed, err)
		}
		return nil, err
	}
	b.Status = domain.BookingStatusConfirmed
	b.BookingResponse = message

	if err := s.bookings.Insert(ctx, &b); err != nil {
		return nil, fmt.Errorf("persist booking: %w", err)
	}
	return &b, nil
}

// checkAvailability looks for the requested flight among the provider's
// offers for the route and date. A search that errors does not block the
// booking unless strict availability is on.
func (s *BookingService) checkAvailability(ctx context.Context, p domain.BookingParams) error {
	if s.flights == nil {
		return nil
	}
	req := domain.NewSearchRequest(p.Origin, p.Destination, p.DepartureDate, p.Provider)
	resp, err := s.flights.Search(ctx, req)
	if err != nil {
		if s.strictAvailability {
			return fmt.Errorf("%w: %v", domain.ErrAvailabilityUnverified, err)
		}
		s.log.Warn("could not validate flight availability",
			zap.String("flight", p.FlightNumber),
			zap.Error(err))
		return nil
	}
	for _, offer := range resp.Offers {
		if strings.EqualFold(offer.FlightNumber, p.FlightNumber) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", domain.ErrFlightNotFound, p.FlightNumber, p.DepartureDate.Format(domain.DateLayout))
}

// recordFailure stores a FAILED copy of the request. The store write runs
// detached from ctx so a cancelled caller still leaves a trace.
func (s *BookingService) recordFailure(ctx context.Context, p domain.BookingParams, now time.Time, cause error) error {
	failed := domain.NewBooking(p, now)
	failed.Status = domain.BookingStatusFailed
	failed.BookingResponse = "Booking failed: " + cause.Error()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.externalTimeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("flight", p.FlightNumber),
		zap.String("email", p.PassengerEmail),
		zap.NamedError("cause", cause),
	}
	if err := s.bookings.Insert(writeCtx, &failed); err != nil {
		s.log.Error("failed to record failed booking", append(fields, zap.Error(err))...)
		return &FailedBookingError{Err: cause}
	}

	s.log.Warn("booking failed", append(fields, zap.String("reference", failed.Reference))...)
	s.publish(ctx, kafka.EventBookingFailed, failed, failed.BookingResponse)
	return &FailedBookingError{Reference: failed.Reference, Err: cause}
}

// CancelBooking cancels a PENDING or CONFIRMED booking whose departure is
// still ahead. The booking is untouched when the provider refuses.
func (s *BookingService) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking.reference", reference))

	current, err := s.mustFind(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !domain.CanBeCancelled(*current) {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrBookingNotCancellable, reference, current.Status)
	}
	now := s.clock()
	if domain.IsPastDeparture(*current, now) {
		return nil, fmt.Errorf("%w: %s departed %s %s", domain.ErrDepartureAlreadyPassed,
			reference, current.DepartureDate.Format(domain.DateLayout), current.DepartureTime)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	err = s.gateway.CancelBooking(callCtx, *current)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrExternalCancellationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalCancellationFailed, err)
		}
		span.RecordError(err)
		s.log.Warn("provider refused cancellation", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}

	note := "\nCancelled at: " + now.Format(time.RFC3339)
	updated, err := s.bookings.UpdateStatus(ctx, reference, current.Status, domain.BookingStatusCancelled, note)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking cancelled", zap.String("reference", reference))
	s.publish(ctx, kafka.EventBookingCancelled, *updated, "")
	return updated, nil
}

// UpdateBookingStatus applies an administrative transition. It only writes
// the new status.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	current, err := s.mustFind(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot change status from %s to %s", domain.ErrInvalidStatusTransition, current.Status, status)
	}
	return s.bookings.UpdateStatus(ctx, reference, current.Status, status, "")
}

func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, bool, error) {
	return optional(s.bookings.FindByReference(ctx, reference))
}

func (s *BookingService) GetBookingByID(ctx context.Context, id int64) (*domain.Booking, bool, error) {
	return optional(s.bookings.FindByID(ctx, id))
}

func (s *BookingService) GetBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return s.bookings.FindByEmail(ctx, email)
}

func (s *BookingService) GetBookingsByEmailAndName(ctx context.Context, email, name string) ([]domain.Booking, error) {
	return s.bookings.FindByEmailAndName(ctx, email, name)
}

func (s *BookingService) GetBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	return s.bookings.FindByStatus(ctx, status)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", domain.ErrInvalidArgument,
			to.Format(domain.DateLayout), from.Format(domain.DateLayout))
	}
	return s.bookings.FindByDepartureRange(ctx, from, to)
}

func (s *BookingService) GetBookingsByFlight(ctx context.Context, flightNumber string, departureDate time.Time) ([]domain.Booking, error) {
	return s.bookings.FindByFlightAndDate(ctx, flightNumber, domain.DateOf(departureDate))
}

func (s *BookingService) GetBookingsByProvider(ctx context.Context, provider string) ([]domain.Booking, error) {
	return s.bookings.FindByProvider(ctx, strings.ToUpper(provider))
}

// GetAllBookings pages through every booking, newest first. page is zero
// based; out-of-range sizes fall back to the configured default or the cap.
func (s *BookingService) GetAllBookings(ctx context.Context, page, size int) (domain.BookingPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = s.defaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	items, total, err := s.bookings.List(ctx, page*size, size)
	if err != nil {
		return domain.BookingPage{}, err
	}
	return domain.BookingPage{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *BookingService) GetStatistics(ctx context.Context) (domain.BookingStatistics, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return domain.BookingStatistics{}, err
	}
	stats := domain.BookingStatistics{ByStatus: make(map[domain.BookingStatus]int64, len(domain.AllBookingStatuses))}
	for _, status := range domain.AllBookingStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

func (s *BookingService) mustFind(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := s.bookings.FindByReference(ctx, reference)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, reference)
	}
	return b, err
}

func (s *BookingService) clock() time.Time {
	return s.now().In(s.location)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b domain.Booking, message string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, message, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Reference, event); err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.String("reference", b.Reference),
			zap.Error(err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event); err != nil {
			s.log.Warn("failed to publish booking notification",
				zap.String("type", eventType),
				zap.String("reference", b.Reference),
				zap.Error(err))
		}
	}
}

func optional(b *domain.Booking, err error) (*domain.Booking, bool, error) {
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

var _ BookingUseCase = (*BookingService)(nil)
