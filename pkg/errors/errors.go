package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypePaymentRequired ErrorType = "payment_required"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeAuth            ErrorType = "auth"
	ErrorTypeBadRequest      ErrorType = "bad_request"
	ErrorTypeParsing         ErrorType = "parsing"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error represents a Firecrawl API error with type information.
// Code is the HTTP status (0 for transport failures) and Body the raw
// response body when one was received.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Body    []byte
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("firecrawl %s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("firecrawl %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given type
func New(errType ErrorType, code int, message string) *Error {
	return &Error{Type: errType, Code: code, Message: message}
}

// Wrap creates an error of the given type around a cause
func Wrap(errType ErrorType, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// FromStatus builds an error for a non-2xx HTTP response. message is the
// server-provided error text, if any.
func FromStatus(code int, message string) *Error {
	if message == "" {
		message = http.StatusText(code)
		if message == "" {
			message = fmt.Sprintf("unexpected status code: %d", code)
		}
	}
	return &Error{
		Type:    TypeForStatus(code),
		Message: message,
		Code:    code,
	}
}

// TypeForStatus maps an HTTP status code to an ErrorType
func TypeForStatus(code int) ErrorType {
	switch {
	case code == http.StatusPaymentRequired:
		return ErrorTypePaymentRequired
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusNotFound:
		return ErrorTypeNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrorTypeAuth
	case code == http.StatusBadRequest:
		return ErrorTypeBadRequest
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case code >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypePaymentRequired, ErrorTypeBadRequest:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 500, 502, 503, 504:
		return true
	case 401, 402, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// IsType reports whether err is a Firecrawl error of the given type
func IsType(err error, errType ErrorType) bool {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == errType
	}
	return false
}
