package validation_test

import (
	"errors"
	"testing"

	"github.com/okian/raffle/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given a complete submission", t, func() {
		reg, err := validation.Validate("  Jo ", "Doe", "a@b.com", " 42 ")

		Convey("Then it is accepted with trimmed fields and a parsed number", func() {
			So(err, ShouldBeNil)
			So(reg.FirstName, ShouldEqual, "Jo")
			So(reg.Surname, ShouldEqual, "Doe")
			So(reg.Email, ShouldEqual, "a@b.com")
			So(reg.Number, ShouldEqual, 42)
		})
	})

	Convey("Given missing fields", t, func() {
		cases := []struct {
			first, surname, email, number string
			field                         string
		}{
			{"", "Doe", "a@b.com", "5", validation.FieldFirstName},
			{"Jo", "", "a@b.com", "5", validation.FieldSurname},
			{"Jo", "Doe", "   ", "5", validation.FieldEmail},
			{"Jo", "Doe", "a@b.com", "", validation.FieldNumber},
		}
		for _, c := range cases {
			_, err := validation.Validate(c.first, c.surname, c.email, c.number)
			So(errors.Is(err, validation.ErrMissingField), ShouldBeTrue)

			var verr *validation.Error
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, c.field)
		}
	})

	Convey("Given an empty field and a bad number together", t, func() {
		_, err := validation.Validate("", "Doe", "a@b.com", "abc")

		Convey("Then the missing field is reported first", func() {
			So(errors.Is(err, validation.ErrMissingField), ShouldBeTrue)
			So(errors.Is(err, validation.ErrNotANumber), ShouldBeFalse)
		})
	})

	Convey("Given numbers that do not parse", t, func() {
		for _, raw := range []string{"abc", "1.5", "1e3", "99999999999999999999", "12a"} {
			_, err := validation.Validate("Jo", "Doe", "a@b.com", raw)
			So(errors.Is(err, validation.ErrNotANumber), ShouldBeTrue)
		}
	})

	Convey("Given numbers below one", t, func() {
		for _, raw := range []string{"0", "-1", "-9000"} {
			_, err := validation.Validate("Jo", "Doe", "a@b.com", raw)
			So(errors.Is(err, validation.ErrOutOfRange), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, raw)
		}
	})

	Convey("Given a leading plus sign", t, func() {
		reg, err := validation.Validate("Jo", "Doe", "a@b.com", "+7")

		Convey("Then it parses as a positive integer", func() {
			So(err, ShouldBeNil)
			So(reg.Number, ShouldEqual, 7)
		})
	})
}
