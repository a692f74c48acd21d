package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses by the API layer.
var (
	// ErrNotFound covers a missing record, a missing underlying object
	// and an exhausted delivery chain alike: the caller learns nothing
	// about which.
	ErrNotFound = errors.New("file not found")

	// ErrForbidden means the requester is neither the uploader, an
	// administrator, nor looking at a public file.
	ErrForbidden = errors.New("access denied")
)

// ValidationError rejects bad upload input (empty content, oversize,
// disallowed extension, malformed folder). Always a client error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
