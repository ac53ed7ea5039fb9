// Package storetest holds the behaviour every repository.Store backend must
// share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Factory returns a fresh, empty store. Run closes it.
type Factory func(t *testing.T) repository.Store

func reg(first string, number int64) model.Registration {
	return model.Registration{
		FirstName: first,
		Surname:   "Doe",
		Email:     first + "@example.com",
		Number:    number,
	}
}

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := newStore(t)
		Reset(func() { _ = s.Close() })

		Convey("Then it lists nothing", func() {
			list, err := s.List(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)

			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("When inserting entries", func() {
			a, err := s.Insert(ctx, reg("ada", 10))
			So(err, ShouldBeNil)
			b, err := s.Insert(ctx, reg("bob", 20))
			So(err, ShouldBeNil)

			Convey("Then ids are assigned in increasing order", func() {
				So(a.ID, ShouldBeGreaterThan, 0)
				So(b.ID, ShouldBeGreaterThan, a.ID)
			})

			Convey("Then the stored entry matches the registration", func() {
				So(a.FirstName, ShouldEqual, "ada")
				So(a.Surname, ShouldEqual, "Doe")
				So(a.Email, ShouldEqual, "ada@example.com")
				So(a.Number, ShouldEqual, 10)
				So(a.Winner, ShouldBeFalse)
			})

			Convey("Then List returns them in id order", func() {
				list, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []model.Entry{a, b})
			})

			Convey("Then List returns copies", func() {
				list, _ := s.List(ctx)
				list[0].FirstName = "mutated"
				again, _ := s.List(ctx)
				So(again[0].FirstName, ShouldEqual, "ada")
			})

			Convey("Then Count reports both", func() {
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When inserting an entry with an empty field", func() {
			_, err := s.Insert(ctx, model.Registration{FirstName: "x", Surname: "", Email: "e", Number: 1})

			Convey("Then it is a constraint violation and nothing is stored", func() {
				So(errors.Is(err, repository.ErrConstraintViolation), ShouldBeTrue)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When replacing winners", func() {
			var ids []int64
			for i := 1; i <= 4; i++ {
				e, err := s.Insert(ctx, reg(fmt.Sprintf("p%d", i), int64(i)))
				So(err, ShouldBeNil)
				ids = append(ids, e.ID)
			}
			So(s.ReplaceWinners(ctx, []int64{ids[0], ids[2]}), ShouldBeNil)

			Convey("Then exactly those entries are flagged", func() {
				list, _ := s.List(ctx)
				So(winners(list), ShouldResemble, []int64{ids[0], ids[2]})
			})

			Convey("And a second replace clears the previous set", func() {
				So(s.ReplaceWinners(ctx, []int64{ids[3]}), ShouldBeNil)
				list, _ := s.List(ctx)
				So(winners(list), ShouldResemble, []int64{ids[3]})
			})

			Convey("And an empty set clears every flag", func() {
				So(s.ReplaceWinners(ctx, nil), ShouldBeNil)
				list, _ := s.List(ctx)
				So(winners(list), ShouldBeEmpty)
			})

			Convey("And an unknown id fails without touching flags", func() {
				err := s.ReplaceWinners(ctx, []int64{ids[1], 9999})
				So(errors.Is(err, repository.ErrConstraintViolation), ShouldBeTrue)
				list, _ := s.List(ctx)
				So(winners(list), ShouldResemble, []int64{ids[0], ids[2]})
			})
		})

		Convey("When selecting winners", func() {
			var ids []int64
			for i := 1; i <= 3; i++ {
				e, err := s.Insert(ctx, reg(fmt.Sprintf("s%d", i), int64(i)))
				So(err, ShouldBeNil)
				ids = append(ids, e.ID)
			}
			So(s.ReplaceWinners(ctx, []int64{ids[0]}), ShouldBeNil)

			Convey("Then pick sees every entry and its ids become the winner set", func() {
				var seen []model.Entry
				err := s.SelectWinners(ctx, func(list []model.Entry) []int64 {
					seen = list
					return []int64{ids[1], ids[2]}
				})
				So(err, ShouldBeNil)
				So(len(seen), ShouldEqual, 3)
				So(winners(seen), ShouldResemble, []int64{ids[0]})

				list, _ := s.List(ctx)
				So(winners(list), ShouldResemble, []int64{ids[1], ids[2]})
			})

			Convey("Then an unknown id fails without touching flags", func() {
				err := s.SelectWinners(ctx, func([]model.Entry) []int64 {
					return []int64{ids[2], 9999}
				})
				So(errors.Is(err, repository.ErrConstraintViolation), ShouldBeTrue)
				list, _ := s.List(ctx)
				So(winners(list), ShouldResemble, []int64{ids[0]})
			})

			Convey("Then an insert issued during pick waits for the selection", func() {
				var late model.Entry
				done := make(chan struct{})
				var blocked bool
				err := s.SelectWinners(ctx, func(list []model.Entry) []int64 {
					go func() {
						defer close(done)
						late, _ = s.Insert(ctx, reg("late", 99))
					}()
					select {
					case <-done:
					case <-time.After(30 * time.Millisecond):
						blocked = true
					}
					return []int64{list[len(list)-1].ID}
				})
				So(err, ShouldBeNil)
				So(blocked, ShouldBeTrue)

				<-done
				So(late.ID, ShouldBeGreaterThan, ids[2])
				list, _ := s.List(ctx)
				So(len(list), ShouldEqual, 4)
				So(winners(list), ShouldResemble, []int64{ids[2]})
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then operations report an io failure", func() {
				_, err := s.Insert(ctx, reg("late", 1))
				So(errors.Is(err, repository.ErrIOFailure), ShouldBeTrue)
				_, err = s.List(ctx)
				So(errors.Is(err, repository.ErrIOFailure), ShouldBeTrue)
				err = s.ReplaceWinners(ctx, nil)
				So(errors.Is(err, repository.ErrIOFailure), ShouldBeTrue)
				err = s.SelectWinners(ctx, func([]model.Entry) []int64 { return nil })
				So(errors.Is(err, repository.ErrIOFailure), ShouldBeTrue)
				_, err = s.Count(ctx)
				So(errors.Is(err, repository.ErrIOFailure), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent writers and readers", t, func() {
		s := newStore(t)
		Reset(func() { _ = s.Close() })

		var ids []int64
		for i := 1; i <= 8; i++ {
			e, err := s.Insert(ctx, reg(fmt.Sprintf("c%d", i), int64(i)))
			So(err, ShouldBeNil)
			ids = append(ids, e.ID)
		}
		setA := ids[:5]
		setB := ids[3:]

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			partial int
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				set := setA
				if i%2 == 1 {
					set = setB
				}
				_ = s.ReplaceWinners(ctx, set)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				list, err := s.List(ctx)
				if err != nil {
					continue
				}
				w := winners(list)
				if len(w) != 0 && len(w) != len(setA) && len(w) != len(setB) {
					mu.Lock()
					partial++
					mu.Unlock()
				}
			}
		}()
		wg.Wait()

		Convey("Then readers never observe a partial winner set", func() {
			So(partial, ShouldEqual, 0)
		})
	})
}

func winners(list []model.Entry) []int64 {
	var out []int64
	for _, e := range list {
		if e.Winner {
			out = append(out, e.ID)
		}
	}
	return out
}
