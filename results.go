package pers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/pers/internal/shape"
	"github.com/roach88/pers/internal/store"
	"github.com/roach88/pers/value"
)

// Record is one stored call: argument fields merged with result fields.
type Record = value.Object

// Entry is a stored record with its addressing metadata.
type Entry struct {
	Seq     int64
	Key     value.HashKey
	Session string
	Record  Record
}

// Results is a persistent memoization store.
//
// Results is safe for concurrent use. The memoized function runs outside
// the store's lock; insertion, the write counter and any triggered flush
// form one critical section.
type Results struct {
	mu     sync.Mutex
	cache  *store.Cache
	shaper *shape.Shaper
	cfg    config
	logger *slog.Logger
	count  int // records added by this instance
	closed bool
}

// Open opens the store at path, loading existing records unless
// WithoutLoad is given. The format is chosen from the file extension:
// ".db", ".sqlite" and ".sqlite3" use SQLite, ".zst" compressed JSON and
// anything else plain JSON.
func Open(ctx context.Context, path string, opts ...Option) (*Results, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", cfg.interval)
	}
	if cfg.readOnly && !cfg.load {
		return nil, errors.New("a read-only store must be loaded")
	}
	if cfg.sessionID == "" {
		cfg.sessionID = store.NewSessionID()
	}

	storeOpts, err := cfg.storeOptions()
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(path, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cache := store.NewCache(backend, cfg.sessionID)
	if cfg.load {
		if err := cache.Load(ctx); err != nil {
			backend.Close()
			return nil, err
		}
	}

	cfg.logger.Debug("store opened",
		"path", path,
		"format", backend.Format(),
		"records", cache.Len(),
		"session", cfg.sessionID,
		"read_only", cfg.readOnly,
	)

	return &Results{
		cache:  cache,
		shaper: shape.New(cfg.shape),
		cfg:    cfg,
		logger: cfg.logger,
	}, nil
}

// Append returns the record for call, computing it with fn on a miss.
//
// On a hit the stored record is returned and fn is not called. With
// WithDuplicateError a hit fails with *DuplicateError instead.
//
// If another caller stores the same call while fn runs, the first stored
// record wins and this result is discarded. Append then returns the stored
// record, or *DuplicateError under WithDuplicateError.
//
// On a miss fn runs, its result is shaped into a record together with the
// call's arguments, and the record is stored. Errors returned by fn are
// passed through unchanged and nothing is stored. With flattening enabled,
// a result field that collides with a differently valued named argument
// fails with *ConflictError.
func (r *Results) Append(ctx context.Context, fn Func, call Call) (Record, error) {
	key, err := call.Key()
	if err != nil {
		return nil, err
	}

	rec, found, err := r.lookup(key)
	if err != nil {
		return nil, err
	}
	if found {
		if r.cfg.dupError {
			return nil, &DuplicateError{Call: call, Key: key}
		}
		r.logger.Debug("cache hit", "key", key, "call", call)
		return rec, nil
	}
	if r.cfg.readOnly {
		return nil, fmt.Errorf("%w: %s not stored", ErrReadOnly, call)
	}

	argFields, err := r.shaper.Bind(call.Args, call.Kwargs, fn.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}

	r.logger.Debug("computing", "key", key, "call", call)
	raw, err := fn.Run(ctx, call)
	if err != nil {
		return nil, err
	}

	result, err := value.FromGo(raw)
	if err != nil {
		return nil, fmt.Errorf("convert result of %s: %w", call, err)
	}
	rec, err = r.shaper.Shape(result, argFields, call.Kwargs)
	if err != nil {
		return nil, err
	}

	return r.insert(ctx, key, call, rec)
}

func (r *Results) lookup(key value.HashKey) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, ErrClosed
	}
	e, err := r.cache.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Record.Clone(), true, nil
}

func (r *Results) insert(ctx context.Context, key value.HashKey, call Call, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	// Another goroutine may have stored the same call while fn ran.
	if e, err := r.cache.Get(key); err == nil {
		r.logger.Debug("concurrent result discarded", "key", key, "call", call)
		if r.cfg.dupError {
			return nil, &DuplicateError{Call: call, Key: key}
		}
		return e.Record.Clone(), nil
	}

	if err := r.cache.Set(key, rec); err != nil {
		return nil, fmt.Errorf("store %s: %w", call, err)
	}
	r.count++

	r.logger.Debug("record stored", "key", key, "records", r.cache.Len())

	if r.count%r.cfg.interval == 0 {
		if err := r.flushLocked(ctx); err != nil {
			return nil, err
		}
	}
	return rec.Clone(), nil
}

// Flush writes the working set to durable storage. It is a no-op when
// nothing changed since the last flush, and on read-only stores.
func (r *Results) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.flushLocked(ctx)
}

// Save is an alias for Flush.
func (r *Results) Save(ctx context.Context) error {
	return r.Flush(ctx)
}

func (r *Results) flushLocked(ctx context.Context) error {
	if r.cfg.readOnly {
		return nil
	}
	pending := r.cache.Pending()
	if err := r.cache.Save(ctx); err != nil {
		r.logger.Error("flush failed", "path", r.Path(), "error", err)
		return err
	}
	if pending > 0 {
		r.logger.Info("flushed", "path", r.Path(), "new", pending, "records", r.cache.Len())
	}
	return nil
}

// Close flushes and releases the store. Calling Close again is a no-op.
func (r *Results) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	flushErr := r.flushLocked(ctx)
	closeErr := r.cache.Close()
	return errors.Join(flushErr, closeErr)
}

// Get returns the stored record for call without computing anything.
func (r *Results) Get(call Call) (Record, bool, error) {
	key, err := call.Key()
	if err != nil {
		return nil, false, err
	}
	return r.lookup(key)
}

// Contains reports whether call is stored.
func (r *Results) Contains(call Call) (bool, error) {
	_, found, err := r.Get(call)
	return found, err
}

// Len returns the number of stored records.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

// At returns the i-th record in insertion order. It panics if i is out of
// range.
func (r *Results) At(i int) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.At(i).Record.Clone()
}

// Slice returns the records in [start, end) in insertion order. Bounds are
// clamped to the store, so an out-of-range slice is empty rather than a
// panic.
func (r *Results) Slice(start, end int) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.cache.Len()
	start = min(max(start, 0), n)
	end = min(max(end, start), n)

	out := make([]Record, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.cache.At(i).Record.Clone())
	}
	return out
}

// Records returns every record in insertion order.
func (r *Results) Records() []Record {
	return r.Slice(0, r.Len())
}

// Entries returns every stored entry in insertion order.
func (r *Results) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cache.Entries()
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{
			Seq:     e.Seq,
			Key:     e.Key,
			Session: e.Session,
			Record:  e.Record.Clone(),
		}
	}
	return out
}

// Path returns the location of the durable store.
func (r *Results) Path() string {
	return r.cache.Backend().Path()
}

// Format returns the on-disk format: "json", "json+zstd" or "sqlite".
func (r *Results) Format() string {
	return string(r.cache.Backend().Format())
}

// SessionID returns the id stamped on records computed by this instance.
func (r *Results) SessionID() string {
	return r.cache.Session()
}
