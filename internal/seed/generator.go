package seed

import (
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// minNumberSpan keeps small targets from collapsing every guess onto a
// handful of values.
const minNumberSpan = 10

// Generator produces fake registrations. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(uint64(seed))}
}

// Registrations returns n registrations with guesses spread around target.
// Each carries a fresh idempotency key.
func (g *Generator) Registrations(n int, target int64) []Registration {
	span := 2 * target
	if span < minNumberSpan {
		span = minNumberSpan
	}
	out := make([]Registration, n)
	for i := range out {
		out[i] = Registration{
			Key:       uuid.NewString(),
			FirstName: g.faker.FirstName(),
			Surname:   g.faker.LastName(),
			Email:     g.faker.Email(),
			Number:    strconv.Itoa(g.faker.Number(1, int(span))),
		}
	}
	return out
}
