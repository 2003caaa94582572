// Package pers memoizes expensive function calls to durable storage.
//
// A Results store maps each distinct argument tuple to one flat record that
// combines the call's arguments with the function's result. Calling Append
// with arguments already present returns the stored record without running
// the function again, across process restarts.
//
//	r, err := pers.Open(ctx, "runs.json", pers.WithInterval(10))
//	if err != nil {
//		return err
//	}
//	defer r.Close(ctx)
//
//	square := pers.Func1("x", func(ctx context.Context, x int) (int, error) {
//		return x * x, nil
//	})
//	rec, err := r.Append(ctx, square, pers.MustCall([]any{3}, nil))
//
// Records are flat: arguments become fields named after the declared
// parameters, a mapping result contributes one field per key, a sequence
// result one field per index, and a scalar result a single "result" field.
//
// Grids describe the Cartesian product of candidate values per parameter.
// All, Any and Missing classify every combination as present or absent
// without computing anything; Perform computes whatever is missing.
//
// The store is append-only. Durable writes are batched: with WithInterval(n)
// the working set is flushed after every n-th new record, and on Flush or
// Close.
package pers
