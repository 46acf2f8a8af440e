package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeBookingNotFound        = "BKG001"
	ErrCodeInvalidStateTransition = "BKG002"
	ErrCodeVersionMismatch        = "BKG003"
	ErrCodeUnauthorized           = "BKG004"
	ErrCodeServiceUnavailable     = "BKG005"
	ErrCodeProviderMismatch       = "BKG006"
	ErrCodeEmptyItems             = "BKG007"
	ErrCodeInvalidLocation        = "BKG008"
	ErrCodeProviderInactive       = "BKG009"
	ErrCodeAppointmentInPast      = "BKG010"
	ErrCodeInvalidStatus          = "BKG011"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidStateTransition covers both guard failures and lost
	// compare-and-swap races: the booking is no longer in a state that
	// permits the requested transition.
	ErrInvalidStateTransition = errors.New("invalid booking state transition")

	ErrVersionMismatch = errors.New("version mismatch - concurrent modification detected")
	ErrUnauthorized    = errors.New("not allowed to act on this booking")

	// ErrServiceUnavailableAtLocation rejects home-location lines for
	// services that do not support home delivery.
	ErrServiceUnavailableAtLocation = errors.New("service not available at the requested location")

	ErrProviderMismatch  = errors.New("service does not belong to the booked provider")
	ErrEmptyItems        = errors.New("booking must contain at least one service")
	ErrInvalidLocation   = errors.New("invalid service location")
	ErrProviderInactive  = errors.New("provider is not active")
	ErrAppointmentInPast = errors.New("appointment time is in the past")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// NewBookingError creates a new BookingError
func NewBookingError(code, message string, err error) *BookingError {
	return &BookingError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
