package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/raffle/pkg/logger"
)

// Run executes a complete seeding run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (Stats, error) {
	var stats Stats
	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	start := time.Now()
	log := logger.Get().Named("seed")
	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Int64("target", cfg.Target),
		logger.Int64("seed", cfg.Seed))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	regs := NewGenerator(cfg.Seed).Registrations(cfg.Count, cfg.Target)
	stats.Generated = len(regs)

	submitAll(ctx, c, cfg, regs, &stats)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d registrations failed", stats.Failed)
	}

	winners, err := c.selectWinners(ctx, cfg.Target)
	if err != nil {
		return stats, fmt.Errorf("winner selection failed: %w", err)
	}
	stats.Winners = winners

	first, err := c.table(ctx, cfg.Target)
	if err != nil {
		return stats, fmt.Errorf("table retrieval failed: %w", err)
	}
	stats.TableRows = len(first)

	expected := -1
	if cfg.Fresh {
		expected = stats.Created
	}
	if err := Verify(first, expected, winners); err != nil {
		return stats, err
	}

	if _, err := c.selectWinners(ctx, cfg.Target); err != nil {
		return stats, fmt.Errorf("repeated winner selection failed: %w", err)
	}
	second, err := c.table(ctx, cfg.Target)
	if err != nil {
		return stats, fmt.Errorf("table retrieval failed: %w", err)
	}
	if err := SameWinners(first, second); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "seed run verified",
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("winners", stats.Winners),
		logger.Int("tableRows", stats.TableRows),
		logger.String("duration", stats.Duration.String()))
	return stats, nil
}
