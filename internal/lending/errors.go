package lending

import (
	"errors"
	"fmt"
)

// ErrNotFound is the common kind behind the missing-record rejections.
// errors.Is(err, ErrNotFound) matches any of them.
var ErrNotFound = errors.New("not found")

// Policy rejections. These are user-facing outcomes of the lending rules,
// not failures of the service itself, and always leave the store untouched.
var (
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrBookNotFound          = fmt.Errorf("book %w", ErrNotFound)
	ErrLoanNotFound          = fmt.Errorf("open loan %w", ErrNotFound)
	ErrReservationNotFound   = fmt.Errorf("reservation %w", ErrNotFound)
	ErrBookUnavailable       = errors.New("book is not available")
	ErrBorrowLimitExceeded   = errors.New("borrow limit exceeded")
	ErrReservationNotAllowed = errors.New("book is held for an earlier reserver")
	ErrReservationExists     = errors.New("active reservation already exists for this book")
	ErrReservationNotActive  = errors.New("reservation is no longer active")
)

var policyRejections = []error{
	ErrNotFound,
	ErrBookUnavailable,
	ErrBorrowLimitExceeded,
	ErrReservationNotAllowed,
	ErrReservationExists,
	ErrReservationNotActive,
}

// IsPolicyRejection reports whether err is one of the lending rule
// rejections rather than an infrastructure failure.
func IsPolicyRejection(err error) bool {
	for _, rejection := range policyRejections {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}
