package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/raffle/internal/adapters/export"
	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatter(t *testing.T) {
	Convey("Given the xlsx formatter", t, func() {
		f := export.NewFormatter()

		Convey("When there is nothing to export", func() {
			data, err := f.Format(nil)

			Convey("Then it reports no data", func() {
				So(data, ShouldBeNil)
				So(errors.Is(err, export.ErrNoData), ShouldBeTrue)
			})
		})

		Convey("When exporting entries", func() {
			entries := []model.Entry{
				{ID: 2, FirstName: "Bo", Surname: "Kay", Email: "bo@x.io", Number: 55, Winner: true},
				{ID: 1, FirstName: "Ada", Surname: "Lee", Email: "ada@x.io", Number: 10},
			}
			data, err := f.Format(entries)
			So(err, ShouldBeNil)
			So(data, ShouldNotBeEmpty)

			Convey("Then the workbook holds a header and one row per entry in caller order", func() {
				rows, err := export.Read(data)
				So(err, ShouldBeNil)

				want := [][]string{
					{"First Name", "Surname", "Email", "Number", "Winner"},
					{"Bo", "Kay", "bo@x.io", "55", "YES"},
					{"Ada", "Lee", "ada@x.io", "10", "NO"},
				}
				So(cmp.Diff(want, rows), ShouldBeEmpty)
			})
		})
	})
}

func TestReadRejectsGarbage(t *testing.T) {
	Convey("Given bytes that are not a workbook", t, func() {
		_, err := export.Read([]byte("not a zip"))

		Convey("Then reading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFileWriter(t *testing.T) {
	ctx := context.Background()
	fixed := time.Unix(1700000000, 0)

	Convey("Given a writer with a fixed clock", t, func() {
		dir := filepath.Join(t.TempDir(), "exports")
		w := export.NewFileWriter(dir, export.WithClock(func() time.Time { return fixed }))

		Convey("When writing once", func() {
			path, err := w.Write(ctx, []byte("first"))
			So(err, ShouldBeNil)

			Convey("Then the file is named after the unix time", func() {
				So(path, ShouldEqual, filepath.Join(dir, "registrations_1700000000.xlsx"))
				got, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "first")
			})

			Convey("And writing again in the same second", func() {
				second, err := w.Write(ctx, []byte("second"))
				So(err, ShouldBeNil)

				Convey("Then the first file is kept and the second gets a suffix", func() {
					So(second, ShouldEqual, filepath.Join(dir, "registrations_1700000000_1.xlsx"))
					got, _ := os.ReadFile(path)
					So(string(got), ShouldEqual, "first")
				})
			})
		})

		Convey("When the directory cannot be created", func() {
			blocker := filepath.Join(t.TempDir(), "file")
			So(os.WriteFile(blocker, []byte("x"), 0o644), ShouldBeNil)
			bad := export.NewFileWriter(filepath.Join(blocker, "sub"))

			_, err := bad.Write(ctx, []byte("data"))

			Convey("Then it is a write failure", func() {
				So(errors.Is(err, export.ErrWriteFailure), ShouldBeTrue)
			})
		})
	})
}
