package validation

import (
	"errors"
	"fmt"
)

// Sentinel kinds for rejected submissions.
var (
	ErrMissingField = errors.New("missing field")
	ErrNotANumber   = errors.New("number is not an integer")
	ErrOutOfRange   = errors.New("number out of range")
)

// Error describes why a submission was refused. Kind is one of the sentinels
// above; Field names the offending input.
type Error struct {
	Kind  error
	Field string
	Value string
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s=%q", e.Kind, e.Field, e.Value)
}

// Is matches the sentinel kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}
