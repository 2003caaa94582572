package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pers/value"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is kept in PRAGMA user_version. A database with a newer
// version is refused rather than written with an older layout.
const schemaVersion = 1

// migrations[v] upgrades a database from user_version v to v+1. It runs in
// the same transaction as the version bump.
var migrations = []func(tx *sql.Tx) error{
	tagFormat, // 0 -> 1: record the encoding tag
}

// SQLiteBackend stores entries in an append-only SQLite table.
// Uses WAL mode so other processes can read while a run is saving.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens a SQLite database at path, applying the
// schema and any pending migrations.
//
// Connections use WAL journaling, NORMAL synchronous mode and a 5-second
// busy timeout. Safe to call repeatedly on the same path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	b := &SQLiteBackend{db: db, path: path}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// sqliteDSN passes connection pragmas as go-sqlite3 DSN parameters so every
// connection the pool opens gets them.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	return path + "?" + params.Encode()
}

func (b *SQLiteBackend) Path() string   { return b.path }
func (b *SQLiteBackend) Format() Format { return FormatSQLite }

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Load returns all records ordered by seq, with hash_key as tiebreaker.
func (b *SQLiteBackend) Load(ctx context.Context) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT seq, hash_key, record, session
		FROM records
		ORDER BY seq ASC, hash_key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			key    string
			record string
		)
		if err := rows.Scan(&e.Seq, &key, &record, &e.Session); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		e.Key, err = value.ParseHashKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorrupt, e.Seq, err)
		}
		e.Record, err = unmarshalRecord([]byte(record))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorrupt, e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return entries, nil
}

// Save inserts pending entries in one transaction. When snap.Replace is set
// the table is cleared first and every entry is written.
// Re-inserting an existing key is a no-op.
func (b *SQLiteBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	toWrite := snap.Pending
	if snap.Replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		toWrite = snap.Entries
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (seq, hash_key, record, session)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash_key) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range toWrite {
		record, err := value.MarshalCanonical(recordOrEmpty(e.Record))
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", e.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, e.Seq, e.Key.String(), string(record), e.Session); err != nil {
			return fmt.Errorf("insert record %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// migrate applies the schema, upgrades user_version step by step and
// checks the encoding tag.
func (b *SQLiteBackend) migrate() error {
	version, err := b.userVersion()
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than supported %d", ErrCorrupt, version, schemaVersion)
	}

	if _, err := b.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	for v := version; v < schemaVersion; v++ {
		if err := b.step(v); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return b.checkFormat()
}

func (b *SQLiteBackend) step(from int) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrations[from](tx); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

func tagFormat(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('format', ?)
		ON CONFLICT(key) DO NOTHING
	`, storeFormatVersion)
	return err
}

// checkFormat refuses databases tagged with another record encoding.
func (b *SQLiteBackend) checkFormat() error {
	var format string
	err := b.db.QueryRow(`SELECT value FROM meta WHERE key = 'format'`).Scan(&format)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: missing format tag", ErrCorrupt)
	}
	if err != nil {
		return fmt.Errorf("read format tag: %w", err)
	}
	if format != storeFormatVersion {
		return fmt.Errorf("%w: unsupported format %q", ErrCorrupt, format)
	}
	return nil
}

func (b *SQLiteBackend) userVersion() (int, error) {
	v, err := b.pragma("user_version")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// pragma reads the current value of a PRAGMA.
func (b *SQLiteBackend) pragma(name string) (string, error) {
	var got string
	if err := b.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return got, nil
}
