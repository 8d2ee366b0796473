package cr

import "io"

// Outbox is where finished overdue reports are left for notification
// delivery. All operations stream through io.Reader/io.Writer.
type Outbox interface {
	// Put stores a payload under name. size is the number of bytes that
	// will be read from r. Putting an existing name replaces it.
	Put(name string, r io.Reader, size int64) error

	// Get writes the payload stored under name to w.
	Get(name string, w io.Writer) error

	// ValidateSetup verifies that the outbox is reachable and writable.
	ValidateSetup() error
}
