// Package dedupe tracks idempotency keys so a resubmitted registration form
// returns the entry it already created instead of inserting a duplicate.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// State is the outcome of claiming a key.
type State int

const (
	// Claimed means the caller owns the key and must Complete or Release it.
	Claimed State = iota
	// Pending means another request holds the key and has not finished.
	Pending
	// Done means the key already produced an entry; its id is returned.
	Done
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case Pending:
		return "pending"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Guard records idempotency keys for submissions.
type Guard interface {
	// Claim atomically reserves key if unseen. For a key already completed it
	// returns the stored entry id with Done.
	Claim(ctx context.Context, key string) (int64, State)

	// Complete binds a claimed key to the entry it produced.
	Complete(ctx context.Context, key string, id int64)

	// Release forgets a claimed key so the submission can be retried. Used
	// when the insert behind the claim failed.
	Release(ctx context.Context, key string)

	Size() int64
}

type record struct {
	key  string
	id   int64
	done bool
}

// inMemoryGuard keeps keys in insertion order and evicts the oldest once
// maxSize is reached. maxSize <= 0 disables eviction.
type inMemoryGuard struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryGuard creates a guard with configuration options.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.byKey = make(map[string]*list.Element)
	g.order = list.New()
	return g
}

func (g *inMemoryGuard) Claim(_ context.Context, key string) (int64, State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if el, ok := g.byKey[key]; ok {
		rec := el.Value.(*record)
		if rec.done {
			return rec.id, Done
		}
		return 0, Pending
	}

	if g.maxSize > 0 && g.order.Len() >= g.maxSize {
		g.evictOldest()
	}
	g.byKey[key] = g.order.PushBack(&record{key: key})
	return 0, Claimed
}

func (g *inMemoryGuard) Complete(_ context.Context, key string, id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if el, ok := g.byKey[key]; ok {
		rec := el.Value.(*record)
		rec.id = id
		rec.done = true
	}
}

func (g *inMemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	el, ok := g.byKey[key]
	if !ok {
		return
	}
	if el.Value.(*record).done {
		// A finished key stays bound to its entry.
		return
	}
	g.order.Remove(el)
	delete(g.byKey, key)
}

// evictOldest drops the oldest key, preferring finished ones so an in-flight
// claim is not silently lost. Must be called with g.mu held.
func (g *inMemoryGuard) evictOldest() {
	for el := g.order.Front(); el != nil; el = el.Next() {
		if rec := el.Value.(*record); rec.done {
			g.order.Remove(el)
			delete(g.byKey, rec.key)
			return
		}
	}
	if el := g.order.Front(); el != nil {
		g.order.Remove(el)
		delete(g.byKey, el.Value.(*record).key)
	}
}

func (g *inMemoryGuard) Size() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(g.order.Len())
}
