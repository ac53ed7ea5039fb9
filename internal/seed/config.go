// Package seed drives a running raffle server with fake registrations and
// checks the winner invariants through the public API.
package seed

import (
	"errors"
	"time"
)

// Defaults used by the seed CLI.
const (
	DefaultBaseURL = "http://127.0.0.1:9080"
	DefaultCount   = 50
	DefaultWorkers = 4
	DefaultTarget  = 100
	DefaultTimeout = 10 * time.Second
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid seed config")

// Config holds configuration for one seeding run.
type Config struct {
	BaseURL string        // base URL of the service
	Count   int           // registrations to submit
	Workers int           // concurrent submitters
	Target  int64         // target for winner selection
	Seed    int64         // faker seed; equal seeds give equal data
	Timeout time.Duration // per-request timeout
	Fresh   bool          // the store was empty before the run
}

// Validate checks the config before any request is made.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("url is required"))
	case c.Count < 1:
		return errors.Join(ErrInvalidConfig, errors.New("count must be >= 1"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be >= 1"))
	case c.Timeout <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("timeout must be positive"))
	}
	return nil
}

// Registration is one generated submission.
type Registration struct {
	Key       string `json:"-"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Number    string `json:"number"`
}

// Row is one display table row as served by GET /table.
type Row struct {
	ID       int64 `json:"id"`
	Number   int64 `json:"number"`
	Winner   bool  `json:"winner"`
	Position int   `json:"position"`
	Distance int64 `json:"distance"`
}

// Stats summarises a run.
type Stats struct {
	Generated int
	Created   int
	Replayed  int
	Failed    int
	Winners   int
	TableRows int
	Duration  time.Duration
}
