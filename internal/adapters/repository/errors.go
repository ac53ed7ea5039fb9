package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for storage errors.
var (
	ErrConstraintViolation = errors.New("storage constraint violation")
	ErrIOFailure           = errors.New("storage io failure")
	ErrClosed              = errors.New("store closed")
)

// UnknownID is the cause attached to ErrConstraintViolation when a winner id
// does not exist.
func UnknownID(id int64) error {
	return fmt.Errorf("unknown entry id %d", id)
}
