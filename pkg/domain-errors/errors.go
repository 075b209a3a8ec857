// Package domainerrors provides coded errors shared between services and
// transport. Services attach a Code describing the failure class; the HTTP
// layer translates codes into status codes without inspecting messages.
package domainerrors

import "errors"

// Code classifies a domain error for transport translation and logging.
type Code string

const (
	// CodeBadRequest covers malformed request envelopes (unparseable body,
	// missing fields).
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers well-formed requests whose values violate a
	// domain invariant (empty name, underage driver, bad PAN).
	CodeInvalidInput Code = "invalid_input"

	// CodeUnauthorized covers missing, malformed, or expired credentials,
	// including rejected delegation chains.
	CodeUnauthorized Code = "unauthorized"

	// CodeConflict covers domain conflicts such as an unavailable car or a
	// booking that was already confirmed.
	CodeConflict Code = "conflict"

	// CodeUnavailable covers transport-level failures reaching an external
	// collaborator. Safe to retry at the caller's discretion.
	CodeUnavailable Code = "unavailable"

	// CodeInternal is the catch-all for unclassified failures.
	CodeInternal Code = "internal_error"
)

// Error is a comparable coded error value. Two errors with the same code and
// message compare equal, which keeps errors.Is usable in tests.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New constructs a coded error.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// wrapped carries a cause alongside the coded error so the full chain stays
// available for logging while services match on the code.
type wrapped struct {
	coded Error
	cause error
}

func (w wrapped) Error() string { return w.coded.Error() }

func (w wrapped) Unwrap() error { return w.cause }

// Is lets a wrapped error match the bare coded value.
func (w wrapped) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t == w.coded
}

// As surfaces the outer coded value. Without it errors.As would walk past
// this node and deep-match a coded error inside the cause chain, letting the
// cause's classification shadow the one chosen at the wrap site.
func (w wrapped) As(target any) bool {
	t, ok := target.(*Error)
	if ok {
		*t = w.coded
	}
	return ok
}

// Wrap attaches a cause to a coded error. The cause is reachable through
// errors.Unwrap but never rendered to clients.
func Wrap(code Code, message string, cause error) error {
	if cause == nil {
		return New(code, message)
	}
	return wrapped{coded: New(code, message), cause: cause}
}

// CodeOf extracts the Code from err, or CodeInternal if err carries none.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the coded message from err, or "" if err carries none.
func MessageOf(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e Error
	return errors.As(err, &e) && e.Code == code
}
