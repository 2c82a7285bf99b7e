package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error. The booking ledger never returns a
// generic failure: every rejected operation carries one of these kinds so
// callers can tell recoverable outcomes (SlotConflict, InvalidTransition)
// from infrastructure faults (Unavailable).
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindServiceInactive
	KindSelfBooking
	KindSlotConflict
	KindInvalidTransition
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindServiceInactive:
		return "service_inactive"
	case KindSelfBooking:
		return "self_booking"
	case KindSlotConflict:
		return "slot_conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnavailable for anything that is
// not an AppError (unknown failures are treated as infrastructure).
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnavailable
}

// Retryable reports whether the caller may usefully retry the operation.
// SlotConflict is retryable with a different time, Unavailable with backoff.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindSlotConflict || k == KindUnavailable
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Err:     err,
	}
}

func ServiceInactive(message string) *AppError {
	return &AppError{
		Kind:    KindServiceInactive,
		Message: message,
	}
}

func SelfBooking(message string) *AppError {
	return &AppError{
		Kind:    KindSelfBooking,
		Message: message,
	}
}

func SlotConflict(message string) *AppError {
	return &AppError{
		Kind:    KindSlotConflict,
		Message: message,
	}
}

func InvalidTransition(message string) *AppError {
	return &AppError{
		Kind:    KindInvalidTransition,
		Message: message,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Message: message,
	}
}

func Unavailable(err error) *AppError {
	return &AppError{
		Kind:    KindUnavailable,
		Message: "service temporarily unavailable",
		Err:     err,
	}
}
