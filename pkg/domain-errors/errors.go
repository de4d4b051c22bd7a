// Package domainerrors defines the typed errors services return and the
// translation from error codes to HTTP statuses. Handlers never invent status
// codes; they ask ToHTTPStatus so the mapping lives in one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers across the system boundary.
type Code string

const (
	// CodeBadRequest covers malformed requests: unparsable bodies, missing
	// required fields or query parameters.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput covers fields that are present but violate policy.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized covers rejected credentials, including confirmation
	// tokens that match no subscriber.
	CodeUnauthorized Code = "unauthorized"
	// CodeRateLimited covers requests rejected by the rate limiter.
	CodeRateLimited Code = "rate_limited"
	// CodeDispatchFailed covers confirmation email delivery failures. The
	// subscriber row is already committed when this surfaces.
	CodeDispatchFailed Code = "dispatch_failed"
	// CodeInternal covers storage and other infrastructure failures.
	CodeInternal Code = "internal"
	// CodeTimeout covers operations aborted by deadline.
	CodeTimeout Code = "timeout"
)

// DomainError carries a code and an operator-facing message. The message is
// safe to log but only the code crosses the HTTP boundary for 5xx classes.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal so unknown
// errors surface as server faults rather than leaking detail.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the domain message when err is a DomainError and a
// client-safe fallback otherwise.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeDispatchFailed, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
