package pers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pers/value"
)

// Grid lists candidate values per parameter: positional parameters first,
// then named ones, each in the order they were added. Its combinations are
// the Cartesian product of the lists, enumerated with the last parameter
// varying fastest.
//
// Conversion errors from Arg and Kwarg are kept and reported by Err and by
// every query over the grid.
type Grid struct {
	args   [][]value.Value
	names  []string
	kwargs [][]value.Value
	err    error
}

// NewGrid returns an empty grid. It has exactly one combination: the call
// with no arguments.
func NewGrid() *Grid {
	return &Grid{}
}

// Arg appends a positional parameter with the given candidates.
func (g *Grid) Arg(candidates ...any) *Grid {
	vals, err := convertAll(candidates)
	if err != nil {
		g.fail(fmt.Errorf("argument %d: %w", len(g.args), err))
		return g
	}
	return g.ArgValues(vals...)
}

// ArgValues is like Arg for values that are already converted.
func (g *Grid) ArgValues(candidates ...value.Value) *Grid {
	g.args = append(g.args, candidates)
	return g
}

// Kwarg appends a named parameter with the given candidates.
func (g *Grid) Kwarg(name string, candidates ...any) *Grid {
	vals, err := convertAll(candidates)
	if err != nil {
		g.fail(fmt.Errorf("argument %q: %w", name, err))
		return g
	}
	return g.KwargValues(name, vals...)
}

// KwargValues is like Kwarg for values that are already converted.
func (g *Grid) KwargValues(name string, candidates ...value.Value) *Grid {
	for _, n := range g.names {
		if n == name {
			g.fail(fmt.Errorf("argument %q listed twice", name))
			return g
		}
	}
	g.names = append(g.names, name)
	g.kwargs = append(g.kwargs, candidates)
	return g
}

// Err returns the first error recorded while building the grid.
func (g *Grid) Err() error {
	return g.err
}

// Names returns the named parameters in declaration order.
func (g *Grid) Names() []string {
	return append([]string(nil), g.names...)
}

// Positional returns the number of positional parameters.
func (g *Grid) Positional() int {
	return len(g.args)
}

// Size returns the number of combinations.
func (g *Grid) Size() int {
	n := 1
	for _, l := range g.lists() {
		n *= len(l)
	}
	return n
}

func (g *Grid) fail(err error) {
	if g.err == nil {
		g.err = fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
}

func (g *Grid) lists() [][]value.Value {
	out := make([][]value.Value, 0, len(g.args)+len(g.kwargs))
	out = append(out, g.args...)
	return append(out, g.kwargs...)
}

// Each calls yield for every combination in product order until yield
// returns false.
func (g *Grid) Each(yield func(Call) bool) error {
	if g.err != nil {
		return g.err
	}
	lists := g.lists()
	for _, l := range lists {
		if len(l) == 0 {
			return nil
		}
	}

	idx := make([]int, len(lists))
	for {
		if !yield(g.combination(idx)) {
			return nil
		}
		// Advance the odometer, last position fastest.
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(lists[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

func (g *Grid) combination(idx []int) Call {
	c := Call{
		Args:   make(value.Array, len(g.args)),
		Kwargs: make(value.Object, len(g.kwargs)),
	}
	for i := range g.args {
		c.Args[i] = g.args[i][idx[i]]
	}
	for j, name := range g.names {
		c.Kwargs[name] = g.kwargs[j][idx[len(g.args)+j]]
	}
	return c
}

func convertAll(candidates []any) ([]value.Value, error) {
	out := make([]value.Value, len(candidates))
	for i, c := range candidates {
		v, err := value.FromGo(c)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// All reports whether every combination of g is stored. It stops at the
// first missing combination. A grid with an empty candidate list has no
// combinations, so All is vacuously true.
func (r *Results) All(g *Grid) (bool, error) {
	all := true
	err := r.scan(g, func(_ Call, found bool) bool {
		if !found {
			all = false
		}
		return found
	})
	if err != nil {
		return false, err
	}
	return all, nil
}

// Any reports whether at least one combination of g is stored. It stops at
// the first stored combination.
func (r *Results) Any(g *Grid) (bool, error) {
	anyFound := false
	err := r.scan(g, func(_ Call, found bool) bool {
		if found {
			anyFound = true
		}
		return !found
	})
	if err != nil {
		return false, err
	}
	return anyFound, nil
}

// Missing returns every combination of g that is not stored, in product
// order. Positional candidates end up in Call.Args and named ones in
// Call.Kwargs. An empty result means every combination is stored.
func (r *Results) Missing(g *Grid) ([]Call, error) {
	var missing []Call
	err := r.scan(g, func(c Call, found bool) bool {
		if !found {
			missing = append(missing, c)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// scan classifies combinations of g until visit returns false.
func (r *Results) scan(g *Grid, visit func(c Call, found bool) bool) error {
	var scanErr error
	err := g.Each(func(c Call) bool {
		found, err := r.Contains(c)
		if err != nil {
			scanErr = err
			return false
		}
		return visit(c, found)
	})
	return errors.Join(err, scanErr)
}

type performConfig struct {
	workers int
}

// PerformOption configures Perform.
type PerformOption func(*performConfig)

// Workers computes up to n combinations concurrently. Default: 1.
func Workers(n int) PerformOption {
	return func(c *performConfig) {
		c.workers = n
	}
}

// Perform computes every combination of g that is not stored yet, and
// returns how many records it added. The first error stops the run;
// records computed before it stay stored.
func (r *Results) Perform(ctx context.Context, fn Func, g *Grid, opts ...PerformOption) (int, error) {
	cfg := performConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		return 0, fmt.Errorf("workers must be positive, got %d", cfg.workers)
	}

	missing, err := r.Missing(g)
	if err != nil {
		return 0, err
	}
	r.logger.Info("performing", "missing", len(missing), "total", g.Size(), "workers", cfg.workers)

	var done atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.workers)
	for _, c := range missing {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if _, err := r.Append(egCtx, fn, c); err != nil {
				return err
			}
			done.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return int(done.Load()), err
	}
	return int(done.Load()), ctx.Err()
}
