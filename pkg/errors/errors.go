// Package errors provides the domain error types for the azurely client.
//
// Every failure of an analysis round trip falls into one of four kinds:
// validation (rejected locally, no request made), transport (no response),
// service (non-2xx response) and parse (2xx response with an unreadable body).
// Each kind has a sentinel so callers can branch with errors.Is().
//
// Usage:
//
//	import azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
//
//	if azerrors.IsTransport(err) {
//	    // backend unreachable
//	}
package errors

import "errors"

// Domain errors - sentinel errors for each failure kind.
var (
	// ErrValidation indicates invalid input rejected before any request is made.
	ErrValidation = errors.New("validation error")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("transport error")

	// ErrService indicates the analysis service answered with a non-2xx status.
	ErrService = errors.New("service error")

	// ErrParse indicates a 2xx response whose body could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrUnauthorized indicates the service rejected the request credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")
)

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransport reports whether any error in err's chain is ErrTransport.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsService reports whether any error in err's chain is ErrService.
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}

// IsParse reports whether any error in err's chain is ErrParse.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
