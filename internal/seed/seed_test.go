package seed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/okian/raffle/internal/adapters/http/api"
	service "github.com/okian/raffle/internal/app"
	"github.com/okian/raffle/internal/seed"
	"github.com/okian/raffle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := seed.NewGenerator(7).Registrations(20, 50)
		b := seed.NewGenerator(7).Registrations(20, 50)

		Convey("Then the personal data matches and keys differ", func() {
			So(len(a), ShouldEqual, 20)
			for i := range a {
				So(a[i].Email, ShouldEqual, b[i].Email)
				So(a[i].Number, ShouldEqual, b[i].Number)
				So(a[i].Key, ShouldNotEqual, b[i].Key)
			}
		})

		Convey("Then every guess is a whole number within range", func() {
			for _, r := range a {
				So(r.FirstName, ShouldNotBeBlank)
				So(r.Surname, ShouldNotBeBlank)
				So(r.Email, ShouldNotBeBlank)
				n, err := strconv.Atoi(r.Number)
				So(err, ShouldBeNil)
				So(n, ShouldBeBetweenOrEqual, 1, 100)
			}
		})
	})

	Convey("Given a tiny target", t, func() {
		regs := seed.NewGenerator(1).Registrations(30, 1)

		Convey("Then guesses still span a minimum range", func() {
			for _, r := range regs {
				n, _ := strconv.Atoi(r.Number)
				So(n, ShouldBeBetweenOrEqual, 1, 10)
			}
		})
	})
}

func TestVerify(t *testing.T) {
	row := func(id int64, dist int64, winner bool, pos int) seed.Row {
		return seed.Row{ID: id, Distance: dist, Winner: winner, Position: pos}
	}

	Convey("Given a well formed table", t, func() {
		rows := []seed.Row{
			row(3, 0, true, 1), row(2, 5, true, 2), row(4, 5, true, 3),
			row(1, 10, true, 4), row(5, 10, true, 5), row(6, 10, false, 6), row(7, 50, false, 7),
		}

		Convey("Then it verifies", func() {
			So(seed.Verify(rows, 7, 5), ShouldBeNil)
			So(seed.Verify(rows, -1, 5), ShouldBeNil)
		})

		Convey("Then a size mismatch fails", func() {
			So(errors.Is(seed.Verify(rows, 8, 5), seed.ErrVerification), ShouldBeTrue)
		})

		Convey("Then a wrong reported count fails", func() {
			So(seed.Verify(rows, 7, 4), ShouldNotBeNil)
		})
	})

	Convey("Given a non-winner closer than a winner", t, func() {
		rows := []seed.Row{row(1, 0, true, 1), row(2, 9, true, 2), row(3, 4, false, 3)}

		Convey("Then it fails", func() {
			So(seed.Verify(rows, 3, 3), ShouldNotBeNil)
		})
	})

	Convey("Given a winner listed after a non-winner", t, func() {
		rows := []seed.Row{row(1, 0, false, 1), row(2, 1, true, 2)}

		Convey("Then it fails", func() {
			So(seed.Verify(rows, 2, 2), ShouldNotBeNil)
		})
	})

	Convey("Given an empty table", t, func() {
		Convey("Then zero winners verifies", func() {
			So(seed.Verify(nil, 0, 0), ShouldBeNil)
		})
	})

	Convey("Given two tables", t, func() {
		a := []seed.Row{row(1, 0, true, 1), row(2, 1, false, 2)}
		b := []seed.Row{row(2, 1, true, 1), row(1, 0, false, 2)}

		Convey("Then differing winner sets fail", func() {
			So(seed.SameWinners(a, a), ShouldBeNil)
			So(seed.SameWinners(a, b), ShouldNotBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given seed configs", t, func() {
		good := seed.Config{BaseURL: "http://x", Count: 1, Workers: 1, Timeout: time.Second}
		So(good.Validate(), ShouldBeNil)

		bad := good
		bad.Count = 0
		So(errors.Is(bad.Validate(), seed.ErrInvalidConfig), ShouldBeTrue)

		bad = good
		bad.Workers = 0
		So(errors.Is(bad.Validate(), seed.ErrInvalidConfig), ShouldBeTrue)

		bad = good
		bad.BaseURL = ""
		So(errors.Is(bad.Validate(), seed.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestRunAgainstServer(t *testing.T) {
	Convey("Given a fresh raffle server", t, func() {
		svc := service.New(service.WithExportDir(t.TempDir()))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When seeding it", func() {
			stats, err := seed.Run(context.Background(), &seed.Config{
				BaseURL: srv.URL,
				Count:   25,
				Workers: 4,
				Target:  60,
				Seed:    42,
				Timeout: 5 * time.Second,
				Fresh:   true,
			})

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(stats.Created, ShouldEqual, 25)
				So(stats.Winners, ShouldEqual, 5)
				So(stats.TableRows, ShouldEqual, 25)
			})
		})

		Convey("When the server is unreachable", func() {
			_, err := seed.Run(context.Background(), &seed.Config{
				BaseURL: "http://127.0.0.1:1",
				Count:   1,
				Workers: 1,
				Timeout: 200 * time.Millisecond,
			})

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
