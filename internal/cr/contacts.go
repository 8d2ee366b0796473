package cr

import "cr-go/internal/contacts"

// ContactResolver yields the notification contacts of a profile and whether
// the profile is left out of overdue reports.
type ContactResolver interface {
	Resolve(profile string, explicit bool) (contacts.Set, bool, error)
}
