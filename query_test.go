package pers

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pers/value"
)

func TestGrid_ProductOrder(t *testing.T) {
	g := NewGrid().Arg(1, 2).Kwarg("b", "x", "y").Kwarg("c", true)

	var got []string
	require.NoError(t, g.Each(func(c Call) bool {
		got = append(got, c.String())
		return true
	}))

	assert.Equal(t, []string{
		`(1, b="x", c=true)`,
		`(1, b="y", c=true)`,
		`(2, b="x", c=true)`,
		`(2, b="y", c=true)`,
	}, got)
	assert.Equal(t, 4, g.Size())
	assert.Equal(t, 1, g.Positional())
	assert.Equal(t, []string{"b", "c"}, g.Names())
}

func TestGrid_EmptyGridHasOneCombination(t *testing.T) {
	var calls []Call
	require.NoError(t, NewGrid().Each(func(c Call) bool {
		calls = append(calls, c)
		return true
	}))

	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Args)
	assert.Empty(t, calls[0].Kwargs)
}

func TestGrid_EmptyListHasNoCombinations(t *testing.T) {
	g := NewGrid().Arg(1, 2).Kwarg("b")
	n := 0
	require.NoError(t, g.Each(func(Call) bool { n++; return true }))
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, g.Size())
}

func TestGrid_StopsEarly(t *testing.T) {
	n := 0
	require.NoError(t, NewGrid().Arg(1, 2, 3).Each(func(Call) bool {
		n++
		return n < 2
	}))
	assert.Equal(t, 2, n)
}

func TestGrid_Errors(t *testing.T) {
	t.Run("unconvertible candidate", func(t *testing.T) {
		g := NewGrid().Arg(1, make(chan int))
		assert.ErrorIs(t, g.Err(), ErrInvalidCall)
		assert.ErrorIs(t, g.Each(func(Call) bool { return true }), ErrInvalidCall)
	})

	t.Run("duplicate name", func(t *testing.T) {
		g := NewGrid().Kwarg("a", 1).Kwarg("a", 2)
		assert.ErrorContains(t, g.Err(), "listed twice")
	})

	t.Run("first error wins", func(t *testing.T) {
		g := NewGrid().Kwarg("a", 1).Kwarg("a", 2).Arg(make(chan int))
		assert.ErrorContains(t, g.Err(), "listed twice")
	})
}

func TestQuery_CombinatorialCompleteness(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")
	grid := func() *Grid { return NewGrid().Arg(1, 2).Arg(10, 20) }

	for _, a := range []int{1, 2} {
		for _, b := range []int{10, 20} {
			if a == 2 && b == 10 {
				continue
			}
			_, err := r.Append(ctx, add, MustCall([]any{a, b}, nil))
			require.NoError(t, err)
		}
	}

	all, err := r.All(grid())
	require.NoError(t, err)
	assert.False(t, all)

	missing, err := r.Missing(grid())
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, value.Array{value.Int(2), value.Int(10)}, missing[0].Args)
	assert.Empty(t, missing[0].Kwargs)

	_, err = r.Append(ctx, add, missing[0])
	require.NoError(t, err)

	all, err = r.All(grid())
	require.NoError(t, err)
	assert.True(t, all)

	missing, err = r.Missing(grid())
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestQuery_Any(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")

	found, err := r.Any(NewGrid().Kwarg("x", 1, 2, 3))
	require.NoError(t, err)
	assert.False(t, found)

	_, err = r.Append(ctx, square, MustCall(nil, map[string]any{"x": 3}))
	require.NoError(t, err)

	found, err = r.Any(NewGrid().Kwarg("x", 1, 2, 3))
	require.NoError(t, err)
	assert.True(t, found)

	// Same value passed positionally is a different call.
	found, err = r.Any(NewGrid().Arg(3))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQuery_MissingSplitsArgs(t *testing.T) {
	r := openTest(t, "results.json")

	missing, err := r.Missing(NewGrid().Arg("p").Kwarg("k", 1, 2))
	require.NoError(t, err)
	require.Len(t, missing, 2)
	for i, want := range []int64{1, 2} {
		assert.Equal(t, value.Array{value.String("p")}, missing[i].Args)
		assert.Equal(t, value.Object{"k": value.Int(want)}, missing[i].Kwargs)
	}
}

func TestQuery_EdgeCases(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")

	t.Run("empty list", func(t *testing.T) {
		g := func() *Grid { return NewGrid().Arg() }
		all, err := r.All(g())
		require.NoError(t, err)
		assert.True(t, all)
		anyFound, err := r.Any(g())
		require.NoError(t, err)
		assert.False(t, anyFound)
		missing, err := r.Missing(g())
		require.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("no parameters", func(t *testing.T) {
		missing, err := r.Missing(NewGrid())
		require.NoError(t, err)
		require.Len(t, missing, 1)

		_, err = r.Append(ctx, constFunc(42), missing[0])
		require.NoError(t, err)

		all, err := r.All(NewGrid())
		require.NoError(t, err)
		assert.True(t, all)
	})

	t.Run("grid error", func(t *testing.T) {
		_, err := r.All(NewGrid().Arg(make(chan int)))
		assert.ErrorIs(t, err, ErrInvalidCall)
	})
}

func TestQuery_DoesNotCompute(t *testing.T) {
	r := openTest(t, "results.json")

	for _, q := range []func(*Grid) error{
		func(g *Grid) error { _, err := r.All(g); return err },
		func(g *Grid) error { _, err := r.Any(g); return err },
		func(g *Grid) error { _, err := r.Missing(g); return err },
	} {
		require.NoError(t, q(NewGrid().Arg(1, 2, 3)))
	}
	assert.Equal(t, 0, r.Len())
	_, err := os.Stat(r.Path())
	assert.True(t, os.IsNotExist(err), "queries must not write")
}

func TestPerform(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")
	fn, calls := counted(add)

	_, err := r.Append(ctx, fn, MustCall(nil, map[string]any{"a": 1, "b": 10}))
	require.NoError(t, err)

	n, err := r.Perform(ctx, fn, NewGrid().Kwarg("a", 1, 2).Kwarg("b", 10, 20))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, 4, r.Len())

	// Product order is preserved with one worker.
	var order []string
	for _, rec := range r.Slice(1, 4) {
		order = append(order, value.Format(rec["a"])+"/"+value.Format(rec["b"]))
	}
	assert.Equal(t, []string{"1/20", "2/10", "2/20"}, order)

	n, err = r.Perform(ctx, fn, NewGrid().Kwarg("a", 1, 2).Kwarg("b", 10, 20))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPerform_Workers(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.db", WithInterval(7))

	n, err := r.Perform(ctx, square, NewGrid().Kwarg("x", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9), Workers(4))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, r.Len())

	all, err := r.All(NewGrid().Kwarg("x", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9))
	require.NoError(t, err)
	assert.True(t, all)
}

func TestPerform_StopsOnError(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")
	boom := errors.New("boom")
	var runs atomic.Int64
	fn := Func1("x", func(_ context.Context, x int) (int, error) {
		runs.Add(1)
		if x == 2 {
			return 0, boom
		}
		return x, nil
	})

	n, err := r.Perform(ctx, fn, NewGrid().Kwarg("x", 1, 2, 3, 4))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), runs.Load())
	assert.Equal(t, 1, r.Len())
}

func TestPerform_InvalidWorkers(t *testing.T) {
	r := openTest(t, "results.json")
	_, err := r.Perform(context.Background(), square, NewGrid(), Workers(0))
	assert.Error(t, err)
}

func TestPerform_CanceledContext(t *testing.T) {
	r := openTest(t, "results.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := r.Perform(ctx, square, NewGrid().Kwarg("x", 1, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, r.Len())
}
