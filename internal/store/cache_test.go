package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pers/value"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")

	key, record := testEntry(3)
	require.NoError(t, c.Set(key, record))

	got, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, key, got.Key)
	assert.Equal(t, int64(0), got.Seq)
	assert.Equal(t, "s1", got.Session)
	assert.True(t, value.Equal(record, got.Record))
	assert.True(t, c.Has(key))
}

func TestCache_GetMissing(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")

	_, err := c.Get(value.MustCallKey(value.Array{value.Int(1)}, nil))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_SetExistingKey(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")

	key, record := testEntry(1)
	require.NoError(t, c.Set(key, record))

	err := c.Set(key, value.Object{"other": value.Bool(true)})
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, 1, c.Len())

	got, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, value.Equal(record, got.Record), "first record must survive")
}

func TestCache_PutRejectsInvalidKey(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")

	err := c.Put(Entry{Key: "not-a-digest", Record: value.Object{}})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_InsertionOrder(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")

	xs := []int64{5, 1, 9, 3}
	for _, x := range xs {
		key, record := testEntry(x)
		require.NoError(t, c.Set(key, record))
	}

	require.Equal(t, len(xs), c.Len())
	for i, x := range xs {
		e := c.At(i)
		assert.Equal(t, int64(i), e.Seq)
		assert.Equal(t, value.Int(x), e.Record["x"])
	}
}

func TestCache_PendingTracksSaves(t *testing.T) {
	ctx := context.Background()
	c := NewCache(openTestBackend(t, "cache.json"), "s1")
	require.NoError(t, c.Load(ctx))

	fillCache(t, c, 3)
	assert.Equal(t, 3, c.Pending())

	require.NoError(t, c.Save(ctx))
	assert.Equal(t, 0, c.Pending())

	fillCacheFrom(t, c, 3, 2)
	assert.Equal(t, 2, c.Pending())
}

func TestCache_EntriesIsCopy(t *testing.T) {
	c := NewCache(openTestBackend(t, "cache.json"), "s1")
	fillCache(t, c, 2)

	entries := c.Entries()
	entries[0].Session = "mutated"

	assert.Equal(t, "s1", c.At(0).Session)
}

func TestCache_ReloadReproducesOrder(t *testing.T) {
	for _, name := range []string{"store.json", "store.json.zst", "store.db"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := openTestBackend(t, name)

			c1 := NewCache(b, "s1")
			require.NoError(t, c1.Load(ctx))
			fillCache(t, c1, 5)
			require.NoError(t, c1.Save(ctx))

			c2 := NewCache(b, "s2")
			require.NoError(t, c2.Load(ctx))
			require.Equal(t, 5, c2.Len())
			for i := 0; i < 5; i++ {
				want := c1.At(i)
				got := c2.At(i)
				assert.Equal(t, want.Key, got.Key)
				assert.Equal(t, want.Seq, got.Seq)
				assert.Equal(t, "s1", got.Session)
				assert.True(t, value.Equal(want.Record, got.Record))
			}
		})
	}
}

func TestCache_UnloadedSaveReplaces(t *testing.T) {
	for _, name := range []string{"store.json", "store.db"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := openTestBackend(t, name)

			c1 := NewCache(b, "s1")
			require.NoError(t, c1.Load(ctx))
			fillCache(t, c1, 4)
			require.NoError(t, c1.Save(ctx))

			// Never loaded: first save overwrites durable contents.
			c2 := NewCache(b, "s2")
			fillCacheFrom(t, c2, 100, 1)
			require.NoError(t, c2.Save(ctx))

			c3 := NewCache(b, "s3")
			require.NoError(t, c3.Load(ctx))
			require.Equal(t, 1, c3.Len())
			assert.Equal(t, value.Int(100), c3.At(0).Record["x"])
		})
	}
}

func TestCache_SaveWithNothingPendingIsNoop(t *testing.T) {
	ctx := context.Background()
	b := &countingBackend{}
	c := NewCache(b, "s1")
	require.NoError(t, c.Load(ctx))

	require.NoError(t, c.Save(ctx))
	assert.Equal(t, 0, b.saves)

	fillCache(t, c, 1)
	require.NoError(t, c.Save(ctx))
	require.NoError(t, c.Save(ctx))
	assert.Equal(t, 1, b.saves)
}

func TestCache_LoadRejectsDuplicateKeys(t *testing.T) {
	key, record := testEntry(1)
	b := &countingBackend{loaded: []Entry{
		{Seq: 0, Key: key, Record: record},
		{Seq: 1, Key: key, Record: record},
	}}
	c := NewCache(b, "s1")

	err := c.Load(context.Background())
	assert.ErrorContains(t, err, "duplicate key")
}

func fillCacheFrom(t *testing.T, c *Cache, start, n int) {
	t.Helper()
	for i := start; i < start+n; i++ {
		key, record := testEntry(int64(i))
		require.NoError(t, c.Set(key, record))
	}
}

// countingBackend is an in-memory Backend that counts saves.
type countingBackend struct {
	loaded []Entry
	saves  int
	last   Snapshot
}

func (b *countingBackend) Load(context.Context) ([]Entry, error) { return b.loaded, nil }
func (b *countingBackend) Path() string                          { return "memory" }
func (b *countingBackend) Format() Format                        { return FormatJSON }
func (b *countingBackend) Close() error                          { return nil }

func (b *countingBackend) Save(_ context.Context, snap Snapshot) error {
	b.saves++
	b.last = snap
	return nil
}
