package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means neither a known device token nor a
	// session user was presented.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrInvalidPayload is the parent of every PayloadError.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrStorage wraps store failures that survived the retry.
	ErrStorage = errors.New("storage error")
	// ErrNotFound is returned for records the caller does not own.
	ErrNotFound = errors.New("not found")
)

// PayloadError names the offending field of a meal submission.
type PayloadError struct {
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *PayloadError) Unwrap() error { return ErrInvalidPayload }

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
