package store

import (
	"github.com/google/uuid"
)

// NewSessionID returns a time-sortable UUIDv7 identifying one process run.
// Entries computed by the same run share a session id, so stores that are
// filled over several restarts keep a record of which run produced what.
//
// Panics if UUID generation fails (should never happen in practice).
func NewSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}
