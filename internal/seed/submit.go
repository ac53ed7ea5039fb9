package seed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/raffle/pkg/logger"
)

// submitAll posts regs with cfg.Workers concurrent submitters.
func submitAll(ctx context.Context, c *client, cfg *Config, regs []Registration, stats *Stats) {
	log := logger.Get().Named("seed")
	log.Info(ctx, "submitting registrations",
		logger.Int("count", len(regs)), logger.Int("workers", cfg.Workers))

	var created, replayed, failed int64
	work := make(chan Registration, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				again, err := c.submit(ctx, r)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "registration failed", logger.String("email", r.Email), logger.Error(err))
				case again:
					atomic.AddInt64(&replayed, 1)
				default:
					atomic.AddInt64(&created, 1)
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, r := range regs {
			select {
			case <-ctx.Done():
				return
			case work <- r:
			}
		}
	}()

	wg.Wait()

	stats.Created = int(created)
	stats.Replayed = int(replayed)
	stats.Failed = int(failed)
	log.Info(ctx, "submission completed",
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("failed", stats.Failed))
}
