package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/adapters/repository/storetest"
	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "raffle.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestFileStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store { return openTempStore(t) })
}

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		s, err := Open(context.Background(), MemoryPath)
		if err != nil {
			t.Fatalf("open in-memory store: %v", err)
		}
		return s
	})
}

func TestStorePersistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store file with entries and winners", t, func() {
		path := filepath.Join(t.TempDir(), "raffle.db")
		s, err := Open(ctx, path)
		So(err, ShouldBeNil)

		a, err := s.Insert(ctx, model.Registration{FirstName: "Ada", Surname: "L", Email: "ada@x.io", Number: 7})
		So(err, ShouldBeNil)
		b, err := s.Insert(ctx, model.Registration{FirstName: "Bo", Surname: "K", Email: "bo@x.io", Number: 9})
		So(err, ShouldBeNil)
		So(s.ReplaceWinners(ctx, []int64{b.ID}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When the file is reopened", func() {
			s2, err := Open(ctx, path)
			So(err, ShouldBeNil)
			Reset(func() { _ = s2.Close() })

			Convey("Then entries and flags survive", func() {
				list, err := s2.List(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
				So(list[0].ID, ShouldEqual, a.ID)
				So(list[0].Winner, ShouldBeFalse)
				So(list[1].Winner, ShouldBeTrue)
			})

			Convey("Then ids keep increasing", func() {
				c, err := s2.Insert(ctx, model.Registration{FirstName: "Cy", Surname: "M", Email: "cy@x.io", Number: 1})
				So(err, ShouldBeNil)
				So(c.ID, ShouldBeGreaterThan, b.ID)
			})
		})
	})
}

func TestConstraintMapping(t *testing.T) {
	ctx := context.Background()

	Convey("Given an open store", t, func() {
		s := openTempStore(t)
		Reset(func() { _ = s.Close() })

		Convey("When the table check constraint fires", func() {
			_, err := s.sqlDB.ExecContext(ctx,
				`INSERT INTO entries (first_name, surname, email, number) VALUES ('', 's', 'e', 1)`)
			So(err, ShouldNotBeNil)

			Convey("Then it classifies as a constraint violation", func() {
				mapped := classify(repository.OpInsert, err)
				So(errors.Is(mapped, repository.ErrConstraintViolation), ShouldBeTrue)
			})
		})

		Convey("When the driver fails otherwise", func() {
			mapped := classify(repository.OpList, errors.New("disk I/O error"))

			Convey("Then it classifies as an io failure", func() {
				So(errors.Is(mapped, repository.ErrIOFailure), ShouldBeTrue)
			})
		})
	})
}

func TestUpSection(t *testing.T) {
	Convey("Given migration content", t, func() {
		Convey("Then only the up section is applied", func() {
			got := upSection("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;\n")
			So(got, ShouldEqual, "\nCREATE TABLE a (x);\n")
		})

		Convey("Then content without markers is applied whole", func() {
			So(upSection("CREATE TABLE b (y);"), ShouldEqual, "CREATE TABLE b (y);")
		})
	})
}
