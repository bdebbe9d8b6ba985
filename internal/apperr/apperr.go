// Package apperr classifies failures of user-facing operations.
package apperr

import (
	"errors"
	"fmt"

	"taskflow/internal/service"
)

// Kind categorizes an operation failure by how it is surfaced.
type Kind int

const (
	// KindAuth is a rejected login.
	KindAuth Kind = iota + 1

	// KindValidation is a create/update rejected by the backend, shown inline in the form.
	KindValidation

	// KindOperation is a failed status change or delete, shown as a blocking alert.
	KindOperation

	// KindLoad is a failed list fetch, shown as a persistent banner.
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindOperation:
		return "operation"
	case KindLoad:
		return "load"
	}
	return "unknown"
}

// Error is a classified failure carrying the message shown to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New classifies err, using the backend's message or fallback for display.
func New(kind Kind, err error, fallback string) *Error {
	return &Error{Kind: kind, Message: MessageOr(err, fallback), Err: err}
}

// Newf builds an error with a fixed message, ignoring any backend message.
func Newf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Auth classifies a rejected login.
func Auth(err error, fallback string) *Error { return New(KindAuth, err, fallback) }

// Validation classifies a rejected form submission.
func Validation(err error, fallback string) *Error { return New(KindValidation, err, fallback) }

// Operation classifies a failed mutation surfaced as an alert.
func Operation(err error, fallback string) *Error { return New(KindOperation, err, fallback) }

// Load classifies a failed fetch.
func Load(err error, fallback string) *Error { return New(KindLoad, err, fallback) }

// MessageOr returns the backend's message carried by err, or fallback when
// the backend sent none (including transport failures).
func MessageOr(err error, fallback string) string {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
