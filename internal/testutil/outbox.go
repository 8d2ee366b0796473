package testutil

import "cr-go/internal/outbox"

// NewTestOutbox creates a new in-memory outbox for testing.
func NewTestOutbox() *outbox.MemoryOutbox {
	return outbox.NewMemoryOutbox()
}
