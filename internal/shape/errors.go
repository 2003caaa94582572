package shape

import (
	"errors"
	"fmt"

	"github.com/roach88/pers/value"
)

// ErrConflict matches any *ConflictError via errors.Is.
var ErrConflict = errors.New("result field conflicts with argument")

// ErrBinding is returned when a call cannot be bound to parameter names,
// e.g. a positional argument and a named argument target the same parameter.
var ErrBinding = errors.New("invalid argument binding")

// ConflictError reports a flattened result field whose name matches a named
// argument with a different value. Changing the result prefix or disabling
// flattening resolves it.
type ConflictError struct {
	Field    string
	Argument value.Value
	Result   value.Value
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on field %q: argument %s differs from result %s; change the result prefix or disable flattening",
		e.Field, value.Format(e.Argument), value.Format(e.Result))
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
