// Package value provides the value model shared by every stored record.
//
// Arguments, results and record fields are all represented as Value, a sealed
// union of JSON-like types. The package owns the hashing contract of the store:
//
//   - Equal values always produce the same canonical bytes (MarshalCanonical)
//   - Canonical bytes are hashed with SHA-256 and domain separation (CallKey)
//   - Positional order matters, object key order never does
//
// Floats are allowed but must be finite. They always serialize with a decimal
// point or exponent so that Int(2) and Float(2) stay distinct after a round trip
// through durable storage.
package value
