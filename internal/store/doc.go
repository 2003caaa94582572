// Package store provides durable storage for memoized call records.
//
// A Cache holds the working set in memory, in insertion order, and mirrors it
// to a Backend on Save. The store is append-only: entries are never removed
// or mutated, only added.
//
// # Backends
//
//   - FileBackend: one JSON document, optionally zstd-compressed (".zst").
//     Saves write a temp file and rename it into place, so a crash leaves
//     either the old or the new document. The entries payload carries an
//     xxhash64 checksum that is verified on load.
//   - SQLiteBackend: append-only table keyed by hash, WAL mode. Saves insert
//     only the entries added since the previous save, in one transaction.
//
// # Ordering
//
// All reads return entries ordered by seq, the position at which the entry
// entered the working set. Reloading a store reproduces the same order.
//
// All hash keys are computed by value.CallKey: SHA-256 over canonical JSON
// with domain separation.
package store
