package pers

import (
	"fmt"
	"strings"

	"github.com/roach88/pers/value"
)

// Call is one argument tuple: positional arguments plus named arguments.
// Two calls address the same record iff their Args are equal element-wise
// and their Kwargs hold the same entries, in any order.
type Call struct {
	Args   value.Array
	Kwargs value.Object
}

// NewCall converts Go values into a Call. See value.FromGo for the
// supported types.
func NewCall(args []any, kwargs map[string]any) (Call, error) {
	c := Call{
		Args:   make(value.Array, 0, len(args)),
		Kwargs: make(value.Object, len(kwargs)),
	}
	for i, a := range args {
		v, err := value.FromGo(a)
		if err != nil {
			return Call{}, fmt.Errorf("%w: argument %d: %w", ErrInvalidCall, i, err)
		}
		c.Args = append(c.Args, v)
	}
	for name, a := range kwargs {
		v, err := value.FromGo(a)
		if err != nil {
			return Call{}, fmt.Errorf("%w: argument %q: %w", ErrInvalidCall, name, err)
		}
		c.Kwargs[name] = v
	}
	return c, nil
}

// MustCall is like NewCall but panics on error.
func MustCall(args []any, kwargs map[string]any) Call {
	c, err := NewCall(args, kwargs)
	if err != nil {
		panic(err)
	}
	return c
}

// Key returns the hash key addressing the call's record.
func (c Call) Key() (value.HashKey, error) {
	key, err := value.CallKey(c.Args, c.Kwargs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
	return key, nil
}

// String renders the call like a function invocation: (1, "a", k=2).
// Named arguments are sorted.
func (c Call) String() string {
	parts := make([]string, 0, len(c.Args)+len(c.Kwargs))
	for _, a := range c.Args {
		parts = append(parts, value.Format(a))
	}
	for _, name := range c.Kwargs.SortedKeys() {
		parts = append(parts, name+"="+value.Format(c.Kwargs[name]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
