package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrMemberInactive       = errors.New("member is inactive")
	ErrBookUnavailable      = errors.New("book is unavailable")
	ErrReaderGroupMismatch  = errors.New("book is restricted to another reader group")
	ErrBorrowLimitExceeded  = errors.New("borrow limit exceeded")
	ErrDuplicateReservation = errors.New("member already has a pending reservation for this book")
	ErrNoCopyAvailable      = errors.New("no copy available")
	ErrAlreadyReturned      = errors.New("transaction already returned")
	ErrReservationExpired   = errors.New("reservation has expired")
	ErrValidation           = errors.New("validation error")

	// ErrStateConflict means a copy or transaction row was not in the state a
	// transition expected. Seeing it outside a race indicates corrupted data.
	ErrStateConflict = errors.New("state conflict")
)
