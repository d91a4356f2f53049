package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for gateway calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthorized indicates an authenticated endpoint was called without a bearer token.
	// No request is sent in that case.
	ErrUnauthorized = errors.New("unauthorized: no credential")

	// ErrMalformedResponse indicates the backend answered 2xx with a body that does not
	// match the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrValidation indicates a request was rejected locally before being sent.
	ErrValidation = errors.New("invalid request")

	// ErrInvalidTopK indicates a search asked for fewer than one passage.
	ErrInvalidTopK = fmt.Errorf("%w: top_k must be at least 1", ErrValidation)
)

// StatusError is returned for non-2xx responses.
// A rejected or expired token surfaces here as a 401, not as ErrUnauthorized.
type StatusError struct {
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error: %s - %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server error: %s", e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}

func malformed(op string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, op, fmt.Sprintf(format, args...))
}
