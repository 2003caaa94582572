package pers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pers/value"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestFuncAdapters_Binding(t *testing.T) {
	ctx := context.Background()
	f3 := Func3("a", "b", "c", func(_ context.Context, a int, b string, c []float64) (string, error) {
		sum := 0.0
		for _, f := range c {
			sum += f
		}
		return b + ":" + value.Format(value.Float(sum+float64(a))), nil
	})

	tests := []struct {
		name string
		call Call
		want any
	}{
		{"positional", MustCall([]any{1, "s", []float64{0.5}}, nil), "s:1.5"},
		{"named", MustCall(nil, map[string]any{"c": []float64{}, "b": "t", "a": 2}), "t:2.0"},
		{"mixed", MustCall([]any{3}, map[string]any{"b": "u", "c": []any{1, 1}}), "u:5.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f3.Run(ctx, tt.call)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []string{"a", "b", "c"}, f3.Params)
}

func TestFuncAdapters_BindingErrors(t *testing.T) {
	ctx := context.Background()
	f := Func2("a", "b", func(_ context.Context, a, b int) (int, error) { return a + b, nil })

	tests := []struct {
		name string
		call Call
		msg  string
	}{
		{"too many positional", MustCall([]any{1, 2, 3}, nil), "takes 2 positional arguments but 3 were given"},
		{"unexpected name", MustCall([]any{1, 2}, map[string]any{"z": 1}), `unexpected argument "z"`},
		{"bound twice", MustCall([]any{1}, map[string]any{"a": 1}), `multiple values for argument "a"`},
		{"missing", MustCall([]any{1}, nil), `missing argument "b"`},
		{"wrong type", MustCall([]any{1, "two"}, nil), `argument "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Run(ctx, tt.call)
			assert.ErrorIs(t, err, ErrInvalidCall)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestFunc1_StructArgument(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")
	norm := Func1("p", func(_ context.Context, p point) (int, error) {
		return p.X*p.X + p.Y*p.Y, nil
	})

	rec, err := r.Append(ctx, norm, MustCall([]any{point{X: 3, Y: 4}}, nil))
	require.NoError(t, err)
	assert.Equal(t, Record{
		"p":      value.Object{"x": value.Int(3), "y": value.Int(4)},
		"result": value.Int(25),
	}, rec)
}

func TestFunc_ResultTypes(t *testing.T) {
	ctx := context.Background()
	r := openTest(t, "results.json")
	stats := Func1("n", func(_ context.Context, n int) (point, error) {
		return point{X: n, Y: -n}, nil
	})

	rec, err := r.Append(ctx, stats, MustCall([]any{2}, nil))
	require.NoError(t, err)
	assert.Equal(t, Record{
		"n":         value.Int(2),
		"_result_x": value.Int(2),
		"_result_y": value.Int(-2),
	}, rec)
}
