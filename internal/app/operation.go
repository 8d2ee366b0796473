package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one CLI invocation. Its ID tags every log line written
// while it runs.
type Operation struct {
	ID         string
	Operation  string
	Parameters string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewOperation creates a running operation with a fresh ID.
func NewOperation(operation, parameters string, now time.Time) *Operation {
	return &Operation{
		ID:         uuid.NewString(),
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusRunning,
		StartedAt:  now,
	}
}

// Record notes the outcome of a step. The first error marks the operation
// failed; later successes do not clear it.
func (op *Operation) Record(err error) error {
	if err != nil {
		op.Status = StatusError
	}
	return err
}

// Finish stamps the end time. A still running operation succeeded.
func (op *Operation) Finish(now time.Time) {
	if op.Status == StatusRunning {
		op.Status = StatusSuccess
	}
	op.FinishedAt = now
}

// Duration is how long the operation ran, or zero while it is running.
func (op *Operation) Duration() time.Duration {
	if op.FinishedAt.IsZero() {
		return 0
	}
	return op.FinishedAt.Sub(op.StartedAt)
}
