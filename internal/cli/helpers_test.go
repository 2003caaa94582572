package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pers"
)

var addFunc = pers.Func2("a", "b", func(_ context.Context, a, b int) (map[string]int, error) {
	return map[string]int{"sum": a + b}, nil
})

// createTestStore writes a store with four records over two sessions:
// (1,10) (1,20) (2,10) by session-a, then (2,20) by session-b.
func createTestStore(t *testing.T, name string) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), name)

	r, err := pers.Open(ctx, path, pers.WithSessionID("session-a"))
	require.NoError(t, err)
	for _, args := range [][]any{{1, 10}, {1, 20}, {2, 10}} {
		_, err := r.Append(ctx, addFunc, pers.MustCall(args, nil))
		require.NoError(t, err)
	}
	require.NoError(t, r.Close(ctx))

	r, err = pers.Open(ctx, path, pers.WithSessionID("session-b"))
	require.NoError(t, err)
	_, err = r.Append(ctx, addFunc, pers.MustCall([]any{2, 20}, nil))
	require.NoError(t, err)
	require.NoError(t, r.Close(ctx))

	return path
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func assertGolden(t *testing.T, name string, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}
