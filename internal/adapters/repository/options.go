package repository

import "github.com/okian/raffle/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity preallocates room for n entries.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.entries = make([]model.Entry, 0, n)
		}
	}
}
