package pers

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTest opens a store named name in a fresh temp dir.
func openTest(t *testing.T, name string, opts ...Option) *Results {
	t.Helper()
	return openAt(t, filepath.Join(t.TempDir(), name), opts...)
}

func openAt(t *testing.T, path string, opts ...Option) *Results {
	t.Helper()
	r, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(context.Background()) })
	return r
}

// counted wraps fn and counts how often it actually runs.
func counted(fn Func) (Func, *atomic.Int64) {
	var n atomic.Int64
	run := fn.Run
	fn.Run = func(ctx context.Context, c Call) (any, error) {
		n.Add(1)
		return run(ctx, c)
	}
	return fn, &n
}

// constFunc returns result for every call.
func constFunc(result any, params ...string) Func {
	return Func{
		Params: params,
		Run: func(context.Context, Call) (any, error) {
			return result, nil
		},
	}
}

var square = Func1("x", func(_ context.Context, x int) (int, error) {
	return x * x, nil
})

var add = Func2("a", "b", func(_ context.Context, a, b int) (map[string]int, error) {
	return map[string]int{"sum": a + b}, nil
})
