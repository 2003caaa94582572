package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pers/value"
)

// ErrNotFound is returned by Get when no entry exists for a key.
var ErrNotFound = errors.New("no cached value")

// ErrExists is returned by Set when the key is already present.
// The store is append-only.
var ErrExists = errors.New("key already exists")

// Cache is the in-memory working set mirrored to a Backend.
//
// Cache is not safe for concurrent use; callers serialize access.
type Cache struct {
	backend Backend
	session string

	entries []Entry
	index   map[value.HashKey]int
	saved   int  // entries[:saved] are durable
	replace bool // durable contents must be replaced on next save
}

// NewCache creates an empty cache over backend. Call Load to hydrate it.
// Entries added with Set are stamped with session.
func NewCache(backend Backend, session string) *Cache {
	return &Cache{
		backend: backend,
		session: session,
		index:   make(map[value.HashKey]int),
		replace: true,
	}
}

// Load replaces the working set with the backend's durable contents.
// A backend with no durable data yet loads as empty.
func (c *Cache) Load(ctx context.Context) error {
	entries, err := c.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", c.backend.Path(), err)
	}

	index := make(map[value.HashKey]int, len(entries))
	for i := range entries {
		if _, dup := index[entries[i].Key]; dup {
			return fmt.Errorf("load %s: duplicate key %s", c.backend.Path(), entries[i].Key)
		}
		entries[i].Seq = int64(i)
		index[entries[i].Key] = i
	}

	c.entries = entries
	c.index = index
	c.saved = len(entries)
	c.replace = false
	return nil
}

// Save persists the working set. Saving with nothing pending is a no-op
// unless the durable contents still need replacing.
func (c *Cache) Save(ctx context.Context) error {
	if c.saved == len(c.entries) && !c.replace {
		return nil
	}
	snap := Snapshot{
		Entries: c.entries,
		Pending: c.entries[c.saved:],
		Replace: c.replace,
	}
	if err := c.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save %s: %w", c.backend.Path(), err)
	}
	c.saved = len(c.entries)
	c.replace = false
	return nil
}

// Hash computes the key for a composite argument value.
func (c *Cache) Hash(composite value.Value) (value.HashKey, error) {
	return value.Hash(value.DomainCall, composite)
}

// Get returns the entry stored under key, or ErrNotFound.
func (c *Cache) Get(key value.HashKey) (Entry, error) {
	i, ok := c.index[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return c.entries[i], nil
}

// Has reports whether key is present.
func (c *Cache) Has(key value.HashKey) bool {
	_, ok := c.index[key]
	return ok
}

// Set appends a record under key, stamped with the cache's session.
func (c *Cache) Set(key value.HashKey, record value.Object) error {
	return c.Put(Entry{Key: key, Record: record, Session: c.session})
}

// Put appends a complete entry, keeping its session. Used when copying
// between stores. The entry's Seq is reassigned.
func (c *Cache) Put(e Entry) error {
	if err := e.Key.Validate(); err != nil {
		return fmt.Errorf("invalid key %q: %w", e.Key, err)
	}
	if _, ok := c.index[e.Key]; ok {
		return fmt.Errorf("%w: %s", ErrExists, e.Key)
	}
	e.Seq = int64(len(c.entries))
	c.index[e.Key] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// Len returns the number of entries in the working set.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Pending returns the number of entries not yet saved.
func (c *Cache) Pending() int {
	return len(c.entries) - c.saved
}

// At returns the i-th entry in seq order. Panics if i is out of range.
func (c *Cache) At(i int) Entry {
	return c.entries[i]
}

// Entries returns a copy of the working set in seq order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Session returns the session id stamped on new entries.
func (c *Cache) Session() string {
	return c.session
}

// Backend returns the underlying backend.
func (c *Cache) Backend() Backend {
	return c.backend
}

// Close releases the backend. It does not save.
func (c *Cache) Close() error {
	return c.backend.Close()
}
