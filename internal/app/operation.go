package app

import "time"

// Operation tracks the CLI command being run. Its ID tags every log line
// written during the command.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation creates an operation started at now.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        now.UTC().Format("20060102T150405Z"),
		Name:      name,
		StartedAt: now,
		Status:    "success",
	}
}

// Track marks the operation failed when err is non-nil and returns err.
func (op *Operation) Track(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Failed reports whether any tracked step returned an error.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
