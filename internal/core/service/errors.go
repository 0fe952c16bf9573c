package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy surfaced to binding layers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("item not found")
	ErrDuplicateName    = errors.New("item already exists")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ValidationError reports a malformed or out-of-range field. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// storeErr classifies a record store I/O failure while keeping the cause
// in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
