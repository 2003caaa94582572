package pers

import (
	"errors"
	"fmt"

	"github.com/roach88/pers/internal/shape"
	"github.com/roach88/pers/value"
)

var (
	// ErrDuplicate matches any *DuplicateError via errors.Is.
	ErrDuplicate = errors.New("duplicate call")

	// ErrConflict matches any *ConflictError via errors.Is.
	ErrConflict = shape.ErrConflict

	// ErrInvalidCall is returned when a call cannot be bound to the
	// function's parameters or its arguments cannot be hashed.
	ErrInvalidCall = errors.New("invalid call")

	// ErrReadOnly is returned by Append on a store opened with ReadOnly
	// when the result is not already stored.
	ErrReadOnly = errors.New("store is read-only")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// ConflictError reports a flattened result field that collides with a
// differently valued named argument.
type ConflictError = shape.ConflictError

// DuplicateError is returned by Append when the store was opened with
// WithDuplicateError and the call is already stored.
type DuplicateError struct {
	Call Call
	Key  value.HashKey
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("call %s already stored as %s", e.Call, e.Key)
}

// Is reports whether target is ErrDuplicate.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
