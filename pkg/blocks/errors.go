package blocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error codes. Servers may supply their own machine codes (for example
// "invalid_email"); these are the codes the SDK assigns itself.
const (
	CodeNotFound           = "not_found"
	CodeValidation         = "validation_error"
	CodeTimeout            = "timeout"
	CodeNetwork            = "network_error"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternal           = "internal_error"
	CodeRequestAborted     = "request_aborted"
)

// StatusClientTimeout is reported for client-side deadlines and cancellations.
const StatusClientTimeout = 408

// Error is the single error representation surfaced by the transport.
type Error struct {
	// Code is a stable machine-readable string.
	Code string `json:"code" yaml:"code"`
	// Status is the HTTP status, 0 when no response was received.
	Status int `json:"status" yaml:"status"`
	// Message is human readable.
	Message string `json:"message" yaml:"message"`
	// Source points at the offending field, e.g. "/data/attributes/email".
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Meta carries diagnostic payload such as the raw server error array.
	Meta map[string]interface{} `json:"meta,omitempty" yaml:"meta,omitempty"`
	// RequestID correlates the failure with server-side logs.
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	// Duration is the time elapsed before the failure.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Err is the underlying cause, if any.
	Err error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	if e.Status != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.Status)
	}

	if e.Source != "" {
		fmt.Fprintf(&b, " [source: %s]", e.Source)
	}

	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request_id: %s]", e.RequestID)
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error with a code derived from status when code is empty.
func NewError(status int, code, message string) *Error {
	if code == "" {
		code = CodeFromStatus(status)
	}

	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

// CodeFromStatus maps an HTTP status to an error code for responses that
// carry no machine code of their own.
func CodeFromStatus(status int) string {
	switch status {
	case 401:
		return CodeUnauthorized
	case 403:
		return CodeForbidden
	case 404:
		return CodeNotFound
	case 409:
		return CodeConflict
	case 422:
		return CodeValidation
	case 429:
		return CodeRateLimitExceeded
	case 503:
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrInvalidJSON        = errors.New("response body is not valid JSON")
)

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

func hasCode(err error, code string) bool {
	apiErr, ok := AsError(err)

	return ok && apiErr.Code == code
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsError(err)

	return ok && apiErr.Status == status
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound) || hasStatus(err, 404)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized) || hasStatus(err, 401)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden) || hasStatus(err, 403)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict) || hasStatus(err, 409)
}

// IsValidation checks if the error is a validation failure. Servers usually
// send their own code for these, so the status is checked as well.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation) || hasStatus(err, 422)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return hasCode(err, CodeRateLimitExceeded) || hasStatus(err, 429)
}

// IsTimeout checks if the request hit its deadline or was cancelled.
func IsTimeout(err error) bool {
	return hasCode(err, CodeTimeout)
}

// IsCanceled checks if the caller cancelled the request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsNetwork checks if no response was received at all.
func IsNetwork(err error) bool {
	apiErr, ok := AsError(err)

	return ok && apiErr.Code == CodeNetwork && apiErr.Status == 0
}
