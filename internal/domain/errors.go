package domain

import "errors"

// Business-rule conflicts. IsBusinessError reports membership.
var (
	ErrDuplicateBooking        = errors.New("duplicate booking")
	ErrFlightNotFound          = errors.New("flight not found")
	ErrBookingNotCancellable   = errors.New("booking cannot be cancelled")
	ErrDepartureAlreadyPassed  = errors.New("departure already passed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidBooking          = errors.New("invalid booking")
	ErrAvailabilityUnverified  = errors.New("flight availability could not be verified")
	ErrConcurrentUpdate        = errors.New("booking was modified concurrently")
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
	ErrInvalidSearch   = errors.New("invalid search request")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Upstream integration failures.
var (
	ErrExternalCancellationFailed = errors.New("external cancellation failed")
	ErrExternalConfirmationFailed = errors.New("external confirmation failed")
	ErrProviderUnavailable        = errors.New("flight provider unavailable")
	ErrProviderResponse           = errors.New("unreadable flight provider response")
)

var businessErrors = []error{
	ErrDuplicateBooking,
	ErrFlightNotFound,
	ErrBookingNotCancellable,
	ErrDepartureAlreadyPassed,
	ErrInvalidStatusTransition,
	ErrInvalidBooking,
	ErrAvailabilityUnverified,
	ErrConcurrentUpdate,
}

func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsUpstreamError reports failures of an external collaborator.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrExternalCancellationFailed) ||
		errors.Is(err, ErrExternalConfirmationFailed) ||
		errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrProviderResponse)
}
