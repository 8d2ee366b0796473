// Package outbox holds the storage backends published overdue reports are
// left in for notification delivery.
package outbox

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get for a name that was never stored.
var ErrNotFound = errors.New("payload not found")

// checkName rejects names that could escape a backend's namespace.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid payload name %q", name)
	}
	return nil
}
