package dedupe

const defaultMaxSize = 1024

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithMaxSize sets how many keys are remembered.
// If maxSize > 0 the oldest keys are evicted past that bound.
// If maxSize <= 0 keys are never evicted.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}
