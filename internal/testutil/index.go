package testutil

import (
	"testing"

	"cr-go/internal/cr"
	"cr-go/internal/index"
)

// NewTestIndex creates a new in-memory ledger index.
// The index is automatically closed when the test completes.
func NewTestIndex(t *testing.T) cr.Index {
	t.Helper()

	x, err := index.NewSQLiteIndex()
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	t.Cleanup(func() {
		x.Close()
	})
	return x
}
