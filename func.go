package pers

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/pers/value"
)

// Func is a function that can be memoized.
//
// Params lists the declared parameter names in order. Positional argument i
// is stored under Params[i]; positional arguments beyond Params fall back to
// the configured argument prefix. Params may be empty.
//
// Run receives the call unchanged. Its result is converted with
// value.FromGo, so it may be any JSON-like Go value.
type Func struct {
	Params []string
	Run    func(ctx context.Context, c Call) (any, error)
}

// Func1 adapts a typed one-argument function. The argument may be passed
// positionally or by name and is decoded into A with encoding/json rules.
func Func1[A, R any](a string, f func(context.Context, A) (R, error)) Func {
	params := []string{a}
	return Func{
		Params: params,
		Run: func(ctx context.Context, c Call) (any, error) {
			vals, err := bindParams(c, params)
			if err != nil {
				return nil, err
			}
			av, err := decodeArg[A](vals, params, 0)
			if err != nil {
				return nil, err
			}
			r, err := f(ctx, av)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// Func2 adapts a typed two-argument function.
func Func2[A, B, R any](a, b string, f func(context.Context, A, B) (R, error)) Func {
	params := []string{a, b}
	return Func{
		Params: params,
		Run: func(ctx context.Context, c Call) (any, error) {
			vals, err := bindParams(c, params)
			if err != nil {
				return nil, err
			}
			av, err := decodeArg[A](vals, params, 0)
			if err != nil {
				return nil, err
			}
			bv, err := decodeArg[B](vals, params, 1)
			if err != nil {
				return nil, err
			}
			r, err := f(ctx, av, bv)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// Func3 adapts a typed three-argument function.
func Func3[A, B, C, R any](a, b, c string, f func(context.Context, A, B, C) (R, error)) Func {
	params := []string{a, b, c}
	return Func{
		Params: params,
		Run: func(ctx context.Context, call Call) (any, error) {
			vals, err := bindParams(call, params)
			if err != nil {
				return nil, err
			}
			av, err := decodeArg[A](vals, params, 0)
			if err != nil {
				return nil, err
			}
			bv, err := decodeArg[B](vals, params, 1)
			if err != nil {
				return nil, err
			}
			cv, err := decodeArg[C](vals, params, 2)
			if err != nil {
				return nil, err
			}
			r, err := f(ctx, av, bv, cv)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// bindParams maps a call onto params, positional first, then by name.
// Every parameter must receive exactly one value.
func bindParams(c Call, params []string) ([]value.Value, error) {
	if len(c.Args) > len(params) {
		return nil, fmt.Errorf("%w: takes %d positional arguments but %d were given",
			ErrInvalidCall, len(params), len(c.Args))
	}

	vals := make([]value.Value, len(params))
	copy(vals, c.Args)
	for _, name := range c.Kwargs.SortedKeys() {
		i := slices.Index(params, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: unexpected argument %q", ErrInvalidCall, name)
		}
		if vals[i] != nil {
			return nil, fmt.Errorf("%w: multiple values for argument %q", ErrInvalidCall, name)
		}
		vals[i] = c.Kwargs[name]
	}
	for i, v := range vals {
		if v == nil {
			return nil, fmt.Errorf("%w: missing argument %q", ErrInvalidCall, params[i])
		}
	}
	return vals, nil
}

func decodeArg[T any](vals []value.Value, params []string, i int) (T, error) {
	var t T
	if err := value.Decode(vals[i], &t); err != nil {
		return t, fmt.Errorf("%w: argument %q: %w", ErrInvalidCall, params[i], err)
	}
	return t, nil
}
