package core

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the actor's role does not permit the
// operation. Adapters map it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ValidationError marks rejected input: bad dates, negative amounts,
// overpayments, unknown enum values. Adapters map it to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError marks a missing entity reference. Adapters map it to HTTP 404.
type NotFoundError struct {
	Entity string
	Ref    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Ref)
}

// InvalidStateError marks an operation that is valid input but illegal for the
// entity's current lifecycle state, such as finalizing twice or paying a
// draft. Adapters map it to HTTP 409.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func notFound(entity string, ref any) error {
	return &NotFoundError{Entity: entity, Ref: ref}
}

func invalidStatef(format string, args ...any) error {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}
