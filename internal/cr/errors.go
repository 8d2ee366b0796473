package cr

import (
	"errors"
	"fmt"
)

// Error classes. Callers test with errors.Is.
var (
	ErrUsage              = errors.New("usage error")
	ErrConfig             = errors.New("configuration error")
	ErrLedgerInconsistent = errors.New("ledger inconsistency")
	ErrNotFound           = errors.New("not found")
	ErrAmbiguous          = errors.New("ambiguous")
	ErrPublish            = errors.New("publish failed")
)

// PublishError reports a push failure after the local commit succeeded. The
// commit stays in the local ledger checkout; pushing again publishes it.
type PublishError struct {
	Commit string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("commit %s was recorded locally but could not be pushed (run `git push` in the ledger to retry): %v", e.Commit, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{ErrPublish, e.Err}
}
