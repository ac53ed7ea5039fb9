// Package errs carries operation-scoped errors with a sentinel kind.
//
// Packages declare their own sentinel kinds (errors.New) and wrap failures
// with WrapKind so callers can branch with errors.Is on the kind while the
// message keeps the operation and the underlying cause.
package errs

import (
	"errors"
	"strings"
)

// Error is an operation failure classified by Kind.
type Error struct {
	Op   string // e.g. "repository.insert"
	Kind error  // sentinel from the owning package
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("unknown error")
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind classifies err under kind. A nil err still yields a kind error.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap adds op context, keeping any kind already present in err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// KindOf returns the first kind found in err's chain, or nil.
func KindOf(err error) error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind != nil {
				return e.Kind
			}
			err = e.Err
			continue
		}
		err = errors.Unwrap(err)
	}
	return nil
}
