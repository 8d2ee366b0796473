package cr

import (
	"cr-go/internal/model"
	"cr-go/internal/record"
)

// Index is the per-invocation projection of the scanned ledger used to
// select and order overdue items. It is rebuilt on every run.
type Index interface {
	// Reset drops everything previously loaded.
	Reset() error

	// PutItems loads aged items. Loading an sha1 twice is an error.
	PutItems(items []*model.AgedItem) error

	// Overdue returns items with Age >= threshold whose state is not in
	// excluded, ordered by profile, select date and sha1.
	Overdue(threshold int, excluded []record.State) ([]*model.AgedItem, error)

	// CountByProfile returns how many items each profile holds per state.
	CountByProfile() (map[string]map[record.State]int, error)

	// Close releases the index.
	Close() error
}
