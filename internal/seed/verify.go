package seed

import (
	"errors"
	"fmt"
)

// maxWinners mirrors the engine's cap on one selection run.
const maxWinners = 5

// ErrVerification is wrapped by every failed table check.
var ErrVerification = errors.New("verification failed")

// Verify checks a display table fetched right after winner selection.
// expected is the number of rows the table must hold, or -1 to skip that check.
func Verify(rows []Row, expected int, winners int) error {
	if expected >= 0 && len(rows) != expected {
		return fmt.Errorf("%w: table has %d rows, want %d", ErrVerification, len(rows), expected)
	}

	want := len(rows)
	if want > maxWinners {
		want = maxWinners
	}
	if winners != want {
		return fmt.Errorf("%w: selection reported %d winners, want %d", ErrVerification, winners, want)
	}

	flagged := 0
	var farthestWinner int64
	for i, r := range rows {
		if r.Position != i+1 {
			return fmt.Errorf("%w: row %d has position %d", ErrVerification, i, r.Position)
		}
		if !r.Winner {
			continue
		}
		if i != flagged {
			return fmt.Errorf("%w: winner id %d listed after a non-winner", ErrVerification, r.ID)
		}
		flagged++
		if r.Distance > farthestWinner {
			farthestWinner = r.Distance
		}
	}
	if flagged != want {
		return fmt.Errorf("%w: table flags %d winners, want %d", ErrVerification, flagged, want)
	}
	for _, r := range rows[flagged:] {
		if r.Distance < farthestWinner {
			return fmt.Errorf("%w: non-winner id %d at distance %d is closer than a winner at %d",
				ErrVerification, r.ID, r.Distance, farthestWinner)
		}
	}
	return nil
}

// SameWinners reports an error unless a and b flag the same entry ids.
func SameWinners(a, b []Row) error {
	ids := func(rows []Row) map[int64]struct{} {
		m := make(map[int64]struct{})
		for _, r := range rows {
			if r.Winner {
				m[r.ID] = struct{}{}
			}
		}
		return m
	}
	x, y := ids(a), ids(b)
	if len(x) != len(y) {
		return fmt.Errorf("%w: repeated selection changed winner count %d -> %d", ErrVerification, len(x), len(y))
	}
	for id := range x {
		if _, ok := y[id]; !ok {
			return fmt.Errorf("%w: repeated selection dropped winner id %d", ErrVerification, id)
		}
	}
	return nil
}
