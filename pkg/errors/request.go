package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a classified analysis failure.
type ErrorCode string

const (
	ErrUnsupportedFormat   ErrorCode = "unsupported_format"
	ErrUnsupportedLanguage ErrorCode = "unsupported_language"
	ErrConnectionFailed    ErrorCode = "connection_failed"
	ErrTimeout             ErrorCode = "timeout"
	ErrContextCancelled    ErrorCode = "context_cancelled"
	ErrAuthRejected        ErrorCode = "auth_rejected"
	ErrPayloadTooLarge     ErrorCode = "payload_too_large"
	ErrFormatRejected      ErrorCode = "format_rejected"
	ErrUpstreamFailed      ErrorCode = "upstream_failed"
	ErrServerError         ErrorCode = "server_error"
	ErrMalformedResponse   ErrorCode = "malformed_response"
	ErrUnknown             ErrorCode = "unknown"
)

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Op    string
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ServiceError reports a completed request with a non-2xx status.
// Detail holds the service-provided "detail" string when the body carried one.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("service returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("service returned %d", e.Status)
}

// Is matches ErrService, and ErrUnauthorized for 401/403 responses.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrService:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// ParseError reports a 2xx response whose body is not a valid analysis result.
type ParseError struct {
	Status int
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode %d response: %v", e.Status, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Classify maps an error from an analysis round trip to an ErrorCode.
// It returns "" for a nil error.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrContextCancelled
	}

	var svc *ServiceError
	if errors.As(err, &svc) {
		switch svc.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuthRejected
		case http.StatusRequestEntityTooLarge:
			return ErrPayloadTooLarge
		case http.StatusUnsupportedMediaType:
			return ErrFormatRejected
		case http.StatusBadGateway:
			return ErrUpstreamFailed
		}
		return ErrServerError
	}

	switch {
	case IsTransport(err):
		return ErrConnectionFailed
	case IsParse(err):
		return ErrMalformedResponse
	}
	return ErrUnknown
}
