package service

import (
	"errors"

	"github.com/okian/raffle/internal/adapters/export"
	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/validation"
)

// Sentinel kinds raised by the service itself.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrQueueFull         = errors.New("export queue full")
	ErrJobNotFound       = errors.New("export job not found")
	ErrSubmissionPending = errors.New("submission already in progress")
)

// Error codes returned to clients alongside the operator message.
const (
	CodeMissingField        = "missing_field"
	CodeNotANumber          = "not_a_number"
	CodeOutOfRange          = "out_of_range"
	CodeConstraintViolation = "constraint_violation"
	CodeIOFailure           = "io_failure"
	CodeNoData              = "no_data"
	CodeWriteFailure        = "write_failure"
	CodeSubmissionPending   = "submission_pending"
	CodeQueueFull           = "queue_full"
	CodeJobNotFound         = "job_not_found"
	CodeNotStarted          = "not_started"
	CodeInternal            = "internal"
)

type classification struct {
	kind    error
	code    string
	message string
	client  bool // caused by the request, not the system
}

var classifications = []classification{
	{validation.ErrMissingField, CodeMissingField, "Please fill all fields!", true},
	{validation.ErrNotANumber, CodeNotANumber, "Number must be a whole number", true},
	{validation.ErrOutOfRange, CodeOutOfRange, "Number must be >= 1", true},
	{repository.ErrConstraintViolation, CodeConstraintViolation, "Registration rejected by storage", false},
	{repository.ErrIOFailure, CodeIOFailure, "Storage unavailable", false},
	{export.ErrNoData, CodeNoData, "No data to export!", true},
	{export.ErrWriteFailure, CodeWriteFailure, "Could not write export file", false},
	{ErrSubmissionPending, CodeSubmissionPending, "Submission already in progress", true},
	{ErrQueueFull, CodeQueueFull, "Too many exports queued, try again", true},
	{ErrJobNotFound, CodeJobNotFound, "Export job not found", true},
	{ErrNotStarted, CodeNotStarted, "Service is not running", false},
}

func classify(err error) (classification, bool) {
	for _, c := range classifications {
		if errors.Is(err, c.kind) {
			return c, true
		}
	}
	return classification{}, false
}

// Message maps err to the text shown to the kiosk operator. Each error kind
// has its own message; unknown errors share a generic one.
func Message(err error) string {
	if c, ok := classify(err); ok {
		return c.message
	}
	return "Unexpected error"
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	if c, ok := classify(err); ok {
		return c.code
	}
	return CodeInternal
}

// IsClientError reports whether err was caused by the request rather than a
// failure of the engine.
func IsClientError(err error) bool {
	c, ok := classify(err)
	return ok && c.client
}
