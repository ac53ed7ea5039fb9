// Command seed fills a running raffle server with fake registrations and
// verifies the winner selection through the HTTP API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/okian/raffle/internal/seed"
	"github.com/okian/raffle/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "seed",
		Usage: "fake registrations for a raffle server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "text or json"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.InitWithFormat(c.String("log-format")); err != nil {
				return err
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{runCommand()},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "submit registrations, select winners and verify the table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: seed.DefaultBaseURL, Usage: "base URL of the service"},
			&cli.IntFlag{Name: "count", Value: seed.DefaultCount, Usage: "registrations to submit"},
			&cli.IntFlag{Name: "workers", Value: seed.DefaultWorkers, Usage: "concurrent submitters"},
			&cli.Int64Flag{Name: "target", Value: seed.DefaultTarget, Usage: "target number for winner selection"},
			&cli.Int64Flag{Name: "seed", Usage: "faker seed (default: current time)"},
			&cli.DurationFlag{Name: "timeout", Value: seed.DefaultTimeout, Usage: "per-request timeout"},
			&cli.BoolFlag{Name: "fresh", Value: true, Usage: "expect the table to hold only this run's entries"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			stats, err := seed.Run(c.Context, cfg)
			if err != nil {
				return err
			}
			logger.Get().Info(c.Context, "done",
				logger.Int("created", stats.Created),
				logger.Int("winners", stats.Winners))
			return nil
		},
	}
}

func configFrom(c *cli.Context) *seed.Config {
	s := c.Int64("seed")
	if !c.IsSet("seed") {
		s = time.Now().UnixNano()
	}
	return &seed.Config{
		BaseURL: c.String("url"),
		Count:   c.Int("count"),
		Workers: c.Int("workers"),
		Target:  c.Int64("target"),
		Seed:    s,
		Timeout: c.Duration("timeout"),
		Fresh:   c.Bool("fresh"),
	}
}
