// Package ranking orders entries by closeness to a target number and picks
// the winner set.
//
// Ordering: distance ASC, then entry ID ASC (deterministic). On equal
// distance the earlier registration ranks first.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/raffle/internal/domain/model"
)

// MaxWinners caps the winner set of one selection run.
const MaxWinners = 5

// Ranked is an entry annotated with its distance to the target and its
// 1-based position in display order. Entry.Winner holds the freshly computed
// flag, not whatever the store last persisted.
type Ranked struct {
	Entry    model.Entry
	Distance int64
	Position int
}

// Result is the outcome of one ranking pass.
type Result struct {
	// Ordered is the display ordering: winners first in selection order,
	// then the remaining entries by the same key.
	Ordered []Ranked
	// Winners holds the winner IDs in selection order.
	Winners []int64
}

// Distance returns |number - target|, saturating at math.MaxInt64.
func Distance(number, target int64) int64 {
	d := number - target
	// Overflow flips the sign relative to the operands.
	if (number >= target) != (d >= 0) {
		return math.MaxInt64
	}
	if d < 0 {
		if d == math.MinInt64 {
			return math.MaxInt64
		}
		return -d
	}
	return d
}

// less reports whether a ranks before b.
func less(a, b Ranked) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Entry.ID < b.Entry.ID
}

// Rank computes the winner set and display ordering for target. It does not
// modify entries and has no side effects; persisting the winner set is the
// caller's job.
func Rank(entries []model.Entry, target int64) Result {
	if len(entries) == 0 {
		return Result{}
	}

	ranked := make([]Ranked, len(entries))
	for i, e := range entries {
		ranked[i] = Ranked{Entry: e, Distance: Distance(e.Number, target)}
	}
	sort.Slice(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	// Winners are a prefix of the sorted slice and the rest keep the same
	// key, so the display ordering is the sorted order itself.
	k := min(MaxWinners, len(ranked))
	winners := make([]int64, 0, k)
	for i := range ranked {
		ranked[i].Position = i + 1
		ranked[i].Entry.Winner = i < k
		if i < k {
			winners = append(winners, ranked[i].Entry.ID)
		}
	}

	return Result{Ordered: ranked, Winners: winners}
}

// WinnerSet returns the winner IDs as a lookup set.
func (r Result) WinnerSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(r.Winners))
	for _, id := range r.Winners {
		set[id] = struct{}{}
	}
	return set
}
