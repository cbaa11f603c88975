package domain

import "errors"

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAirportNotFound = errors.New("airport not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrNoSeats is a business rejection, not a fault: the flight has
	// fewer seats left than the request asked for.
	ErrNoSeats = errors.New("not enough seats available")

	// ErrDuplicateReference means the generated booking reference already
	// exists in the ledger; the caller regenerates and retries.
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrConflict is transaction contention on the flight row; retried a
	// bounded number of times before being surfaced.
	ErrConflict = errors.New("concurrent booking conflict")

	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
)

// ValidationError marks malformed input that is safe to report verbatim.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error { return ValidationError{Msg: msg} }

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
