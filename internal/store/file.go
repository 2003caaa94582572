package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/pers/value"
)

// storeFormatVersion tags the record encoding. FileBackend writes it into
// the document, SQLiteBackend into its meta table.
const storeFormatVersion = "pers/v1"

// FileBackend stores the working set as a single JSON document:
//
//	{"format":"pers/v1","checksum":"<xxhash64 hex>","entries":[...]}
//
// The checksum covers the raw bytes of the entries array. With FormatJSONZstd
// the whole document is zstd-compressed.
type FileBackend struct {
	path     string
	tempPath string
	format   Format
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func newFileBackend(path string, cfg config) *FileBackend {
	return &FileBackend{
		path:     path,
		tempPath: cfg.tempPath,
		format:   cfg.format,
		dirPerm:  cfg.dirPerm,
		filePerm: cfg.filePerm,
	}
}

type fileDocument struct {
	Format   string          `json:"format"`
	Checksum string          `json:"checksum"`
	Entries  json.RawMessage `json:"entries"`
}

type fileEntry struct {
	Seq     int64           `json:"seq"`
	Key     string          `json:"key"`
	Session string          `json:"session,omitempty"`
	Record  json.RawMessage `json:"record"`
}

func (b *FileBackend) Path() string   { return b.path }
func (b *FileBackend) Format() Format { return b.format }
func (b *FileBackend) Close() error   { return nil }

// Load reads and verifies the document. A missing file loads as empty.
func (b *FileBackend) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.format == FormatJSONZstd {
		data, err = decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return decodeDocument(data)
}

// Save writes the full working set to a temp file and renames it over the
// store. Pending is ignored; the document is always rewritten whole.
func (b *FileBackend) Save(ctx context.Context, snap Snapshot) error {
	data, err := encodeDocument(snap.Entries)
	if err != nil {
		return err
	}
	if b.format == FormatJSONZstd {
		data, err = compress(data)
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.writeAtomic(data)
}

func (b *FileBackend) writeAtomic(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, b.dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var f *os.File
	var err error
	if b.tempPath != "" {
		if err := os.MkdirAll(filepath.Dir(b.tempPath), b.dirPerm); err != nil {
			return fmt.Errorf("create temp directory: %w", err)
		}
		f, err = os.OpenFile(b.tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, b.filePerm)
	} else {
		f, err = os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	}
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Chmod(b.filePerm); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

func encodeDocument(entries []Entry) ([]byte, error) {
	var payload bytes.Buffer
	payload.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			payload.WriteByte(',')
		}
		line, err := encodeEntry(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		payload.Write(line)
	}
	payload.WriteByte(']')

	doc := fileDocument{
		Format:   storeFormatVersion,
		Checksum: checksum(payload.Bytes()),
		Entries:  payload.Bytes(),
	}
	return encodeJSON(doc)
}

func encodeEntry(e Entry) ([]byte, error) {
	record, err := value.MarshalCanonical(recordOrEmpty(e.Record))
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return encodeJSON(fileEntry{
		Seq:     e.Seq,
		Key:     e.Key.String(),
		Session: e.Session,
		Record:  record,
	})
}

// encodeJSON marshals without HTML escaping and without the trailing newline
// json.Encoder adds.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decodeDocument(data []byte) ([]Entry, error) {
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if doc.Format != storeFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrCorrupt, doc.Format)
	}
	if got := checksum(doc.Entries); got != doc.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch (stored %s, computed %s)", ErrCorrupt, doc.Checksum, got)
	}

	var raw []fileEntry
	if err := json.Unmarshal(doc.Entries, &raw); err != nil {
		return nil, fmt.Errorf("%w: entries: %w", ErrCorrupt, err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, fe := range raw {
		key, err := value.ParseHashKey(fe.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		record, err := unmarshalRecord(fe.Record)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		entries = append(entries, Entry{
			Seq:     fe.Seq,
			Key:     key,
			Record:  record,
			Session: fe.Session,
		})
	}
	return entries, nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
