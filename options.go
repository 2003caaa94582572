package pers

import (
	"log/slog"

	"github.com/roach88/pers/internal/shape"
	"github.com/roach88/pers/internal/store"
)

type config struct {
	interval  int
	load      bool
	dupError  bool
	readOnly  bool
	shape     shape.Options
	format    string
	tempPath  string
	sessionID string
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		interval: 1,
		load:     true,
		shape:    shape.DefaultOptions(),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Option configures Open.
type Option func(*config)

// WithInterval flushes the working set after every n-th new record.
// n must be positive. Default: 1 (flush on every new record).
func WithInterval(n int) Option {
	return func(c *config) {
		c.interval = n
	}
}

// WithoutLoad starts from an empty store instead of loading durable data.
// The first flush replaces whatever was stored at the path.
func WithoutLoad() Option {
	return func(c *config) {
		c.load = false
	}
}

// WithDuplicateError makes Append fail with a *DuplicateError when the call
// is already stored, instead of returning the stored record.
func WithDuplicateError() Option {
	return func(c *config) {
		c.dupError = true
	}
}

// WithArgPrefix sets the field name prefix for positional arguments that
// have no declared parameter name. Default: "_arg_".
func WithArgPrefix(prefix string) Option {
	return func(c *config) {
		c.shape.ArgPrefix = prefix
	}
}

// WithResultPrefix sets the field name prefix for flattened result entries.
// Default: "_result_".
func WithResultPrefix(prefix string) Option {
	return func(c *config) {
		c.shape.ResultPrefix = prefix
	}
}

// WithResultKey sets the field holding a scalar or unflattened result.
// Default: "result".
func WithResultKey(key string) Option {
	return func(c *config) {
		c.shape.ResultKey = key
	}
}

// WithoutFlatten stores every result whole under the result key.
func WithoutFlatten() Option {
	return func(c *config) {
		c.shape.Flatten = false
	}
}

// WithSkip drops the named fields from stored records.
func WithSkip(fields ...string) Option {
	return func(c *config) {
		c.shape.Skip = append(c.shape.Skip, fields...)
	}
}

// WithFormat overrides format detection from the file extension.
// One of "json", "json+zstd" or "sqlite".
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithTempPath sets the temp file used for atomic writes of file stores.
func WithTempPath(path string) Option {
	return func(c *config) {
		c.tempPath = path
	}
}

// WithSessionID overrides the generated session id stamped on new records.
func WithSessionID(id string) Option {
	return func(c *config) {
		c.sessionID = id
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// ReadOnly opens the store for lookups only. Append returns stored records
// and fails with ErrReadOnly on a miss; Flush and Close never write.
func ReadOnly() Option {
	return func(c *config) {
		c.readOnly = true
	}
}

func (c config) storeOptions() ([]store.Option, error) {
	var opts []store.Option
	if c.format != "" {
		f, err := store.ParseFormat(c.format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, store.WithFormat(f))
	}
	if c.tempPath != "" {
		opts = append(opts, store.WithTempPath(c.tempPath))
	}
	return opts, nil
}
