package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operational failure. Every kind maps to exactly one
// HTTP status at the response boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindDuplicateEmail
	KindInvalidCredentials
	KindEmailNotVerified
	KindMissingToken
	KindInvalidToken
	KindExpiredToken
	KindStalePasswordToken
	KindInvalidResetToken
	KindInvalidVerificationToken
	KindInvalidCurrentPassword
	KindNotFound
	KindForbidden
)

// Error is an operational, per-request failure. Nothing carried here is
// process-fatal; callers recover by retrying or re-authenticating.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an operational error with the given kind and user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an underlying cause kept out of the rendered body in production.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// StatusOf maps an error kind to its HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindDuplicateEmail, KindInvalidResetToken, KindInvalidVerificationToken:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindEmailNotVerified, KindMissingToken,
		KindInvalidToken, KindExpiredToken, KindStalePasswordToken,
		KindInvalidCurrentPassword:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the user-facing message, hiding internals for
// unclassified errors.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "an unexpected error occurred"
}
