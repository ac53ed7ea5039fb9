// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address. Loopback by default: the
	// kiosk front end runs on the same machine.
	Addr string `koanf:"addr"`

	// StoreDriver picks the entry store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file, or ":memory:".
	StorePath string `koanf:"store_path"`

	// ExportDir receives registrations_<unix>.xlsx files.
	ExportDir string `koanf:"export_dir"`

	// DefaultTarget is used by GET /table when no target is given.
	DefaultTarget int64 `koanf:"default_target"`

	// ExportQueueSize bounds pending background exports.
	ExportQueueSize int `koanf:"export_queue_size"`

	// ExportWorkers sets the number of background export workers.
	ExportWorkers int `koanf:"export_workers"`

	// DedupeSize sets how many idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            "127.0.0.1:9080",
		StoreDriver:     StoreMemory,
		StorePath:       "raffle.db",
		ExportDir:       "exports",
		DefaultTarget:   100,
		ExportQueueSize: 16,
		ExportWorkers:   1,
		DedupeSize:      1024,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && strings.TrimSpace(c.StorePath) == "":
		return fmt.Errorf("%w: store_path is required for sqlite", ErrInvalidConfig)
	case strings.TrimSpace(c.ExportDir) == "":
		return fmt.Errorf("%w: export_dir must not be empty", ErrInvalidConfig)
	case c.DefaultTarget < 1:
		return fmt.Errorf("%w: default_target must be >= 1", ErrInvalidConfig)
	case c.ExportQueueSize < 1:
		return fmt.Errorf("%w: export_queue_size must be positive", ErrInvalidConfig)
	case c.ExportWorkers < 1:
		return fmt.Errorf("%w: export_workers must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	return nil
}
