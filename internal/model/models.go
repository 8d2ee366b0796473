package model

import (
	"time"

	"cr-go/internal/contacts"
	"cr-go/internal/record"
)

// Item is one reviewed commit tracked in the ledger.
type Item struct {
	SHA1       string       // Reviewed commit, taken from the patch filename
	Profile    string       // First path component
	Path       string       // Current ledger path
	State      record.State // Encoded by the state directory of Path
	SelectDate time.Time    // When the patch was first added to the ledger
	Author     string       // Author of the reviewed commit (patch From header)
	CommitDate time.Time    // Date of the reviewed commit (patch Date header)
	Subject    string       // Patch subject
}

// AgedItem is an item with its computed age in the selected calendar model.
type AgedItem struct {
	*Item
	Age int
}

// ConcernAnnotation is the most recent concern raised on an item that is
// still in the concerns state.
type ConcernAnnotation struct {
	SHA1        string
	Date        time.Time // When the concern was recorded
	Explanation string    // Word-wrapped message of the concern record
	Reason      string
	Reviewer    string

	// The item as it stands at report time.
	State      record.State
	SelectDate time.Time
	Author     string
}

// DateGroup holds the overdue items of a profile selected on the same day.
type DateGroup struct {
	Date  time.Time
	Items []*AgedItem
}

// ProfileReport is the overdue section of one profile.
type ProfileReport struct {
	Profile  string
	Count    int
	Contacts contacts.Set
	ByDate   []*DateGroup
	Concerns map[string]*ConcernAnnotation // keyed by sha1
}

// OverdueReport is the structure handed to notification delivery.
type OverdueReport struct {
	GeneratedAt time.Time
	AgeModel    string // e.g. "business days"
	Threshold   int
	Priority    string
	Total       int
	Profiles    []*ProfileReport // sorted by profile name
	Ignored     []string         // profiles with overdue items left out by ignore.overdue
}
