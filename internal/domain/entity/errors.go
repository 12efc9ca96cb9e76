package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAlert is returned when the owner already has an active
	// alert for the same route and scope kind
	ErrDuplicateAlert = errors.New("an active alert already exists for this route and scope")

	// ErrAlertNotFound is returned when no alert matches the given id
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidOrExpiredCode is returned when a linking code does not
	// exist, was already consumed, or is past its expiry
	ErrInvalidOrExpiredCode = errors.New("linking code is invalid or expired")

	// ErrAlreadyLinked is returned when the bot identity is already bound
	// to a different web identity
	ErrAlreadyLinked = errors.New("bot identity is already linked to another account")

	// ErrIdentityNotFound is returned when no web identity matches the given id
	ErrIdentityNotFound = errors.New("web identity not found")
)

// SourceErrorKind classifies fare-source failures for differentiated handling
type SourceErrorKind string

const (
	SourceUnavailable SourceErrorKind = "source_unavailable"
	RateLimited       SourceErrorKind = "rate_limited"
	InvalidRoute      SourceErrorKind = "invalid_route"
)

// SourceError is a fare-source failure. Unavailable and rate-limited
// errors are retryable at the next scheduled cycle; an invalid route is
// a configuration problem on the alert itself.
type SourceError struct {
	Kind SourceErrorKind
	Err  error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fare source: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fare source: %s", e.Kind)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the next scheduled cycle may succeed
func (e *SourceError) Retryable() bool {
	return e.Kind != InvalidRoute
}

// AsSourceError unwraps err into a SourceError if it is one
func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
