// Package validation holds the acceptance rules a submission must pass before
// it reaches the entry store.
package validation

import (
	"strconv"
	"strings"

	"github.com/okian/raffle/internal/domain/model"
)

// Field names used in errors.
const (
	FieldFirstName = "first_name"
	FieldSurname   = "surname"
	FieldEmail     = "email"
	FieldNumber    = "number"
)

// MinNumber is the smallest guess an entrant may submit.
const MinNumber = 1

// Validate checks a raw submission. Rules run in order and stop at the first
// failure: every field present, number parses as an integer, number >= 1.
// Surrounding whitespace is trimmed; email syntax is not checked.
func Validate(firstName, surname, email, numberText string) (model.Registration, error) {
	fields := [...]struct {
		name  string
		value string
	}{
		{FieldFirstName, strings.TrimSpace(firstName)},
		{FieldSurname, strings.TrimSpace(surname)},
		{FieldEmail, strings.TrimSpace(email)},
		{FieldNumber, strings.TrimSpace(numberText)},
	}
	for _, f := range fields {
		if f.value == "" {
			return model.Registration{}, &Error{Kind: ErrMissingField, Field: f.name}
		}
	}

	raw := fields[3].value
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return model.Registration{}, &Error{Kind: ErrNotANumber, Field: FieldNumber, Value: raw}
	}
	if n < MinNumber {
		return model.Registration{}, &Error{Kind: ErrOutOfRange, Field: FieldNumber, Value: raw}
	}

	return model.Registration{
		FirstName: fields[0].value,
		Surname:   fields[1].value,
		Email:     fields[2].value,
		Number:    n,
	}, nil
}
