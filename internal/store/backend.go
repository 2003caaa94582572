package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorrupt is returned when durable data fails integrity checks.
var ErrCorrupt = errors.New("corrupt store")

// Backend persists a Cache's working set.
type Backend interface {
	// Load returns every durable entry in seq order. A store that does not
	// exist yet loads as empty.
	Load(ctx context.Context) ([]Entry, error)

	// Save makes snap durable. On error the previous durable state is intact.
	Save(ctx context.Context, snap Snapshot) error

	// Path returns the location of the durable store.
	Path() string

	// Format returns the on-disk format.
	Format() Format

	Close() error
}

// Format names an on-disk representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONZstd Format = "json+zstd"
	FormatSQLite   Format = "sqlite"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatJSONZstd, FormatSQLite}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want json, json+zstd or sqlite)", s)
}

// FormatFor infers a format from the file extension of path.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	case ".zst":
		return FormatJSONZstd
	default:
		return FormatJSON
	}
}

type config struct {
	format   Format
	tempPath string
	dirPerm  fs.FileMode
	filePerm fs.FileMode
}

// Option configures Open.
type Option func(*config)

// WithFormat overrides format inference from the file extension.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithTempPath sets the file written before the atomic rename on save.
// Defaults to a temp file next to the store. Only used by file backends.
func WithTempPath(path string) Option {
	return func(c *config) {
		c.tempPath = path
	}
}

// WithPermissions sets the mode of created directories and files.
func WithPermissions(dir, file fs.FileMode) Option {
	return func(c *config) {
		c.dirPerm = dir
		c.filePerm = file
	}
}

// Open returns the backend for path.
func Open(path string, opts ...Option) (Backend, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	cfg := config{
		format:   FormatFor(path),
		dirPerm:  0o755,
		filePerm: 0o644,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch cfg.format {
	case FormatJSON, FormatJSONZstd:
		return newFileBackend(path, cfg), nil
	case FormatSQLite:
		if err := os.MkdirAll(filepath.Dir(path), cfg.dirPerm); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown format %q", cfg.format)
	}
}
