package store

import (
	"github.com/roach88/pers/value"
)

// Entry is one durable record together with its addressing metadata.
type Entry struct {
	Seq     int64         // position in the working set
	Key     value.HashKey // hash of the argument tuple
	Record  value.Object  // flat record as produced by the shaper
	Session string        // id of the process session that computed it
}

// Snapshot is the state handed to a Backend on Save.
type Snapshot struct {
	// Entries is the full working set in seq order.
	Entries []Entry

	// Pending is the suffix of Entries added since the last successful save.
	Pending []Entry

	// Replace is set when the cache was never loaded from the backend. The
	// durable contents must be replaced by Entries rather than extended.
	Replace bool
}
