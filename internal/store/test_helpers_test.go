package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pers/value"
)

// openTestBackend opens a backend of the given format in a temp dir.
func openTestBackend(t *testing.T, name string, opts ...Option) Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	b, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", name, err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// testEntry builds an entry for the call f(x) with record {"x": x, "result": x*x}.
func testEntry(x int64) (value.HashKey, value.Object) {
	key := value.MustCallKey(value.Array{value.Int(x)}, nil)
	return key, value.Object{
		"x":      value.Int(x),
		"result": value.Int(x * x),
	}
}

// fillCache sets n entries for x = 0..n-1.
func fillCache(t *testing.T, c *Cache, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		key, record := testEntry(int64(i))
		if err := c.Set(key, record); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
}
