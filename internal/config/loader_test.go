package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/raffle/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"RAFFLE_CONFIG", "RAFFLE_ADDR", "RAFFLE_LOG_LEVEL", "RAFFLE_LOG_FORMAT",
	"RAFFLE_STORE_DRIVER", "RAFFLE_STORE_PATH", "RAFFLE_EXPORT_DIR",
	"RAFFLE_DEFAULT_TARGET", "RAFFLE_EXPORT_QUEUE_SIZE", "RAFFLE_EXPORT_WORKERS",
	"RAFFLE_DEDUPE_SIZE",
}

// clearConfigEnvVars unsets every RAFFLE_ variable for the test's duration.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raffle.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.DefaultTarget, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("RAFFLE_ADDR", ":8080")
			t.Setenv("RAFFLE_STORE_DRIVER", "SQLite")
			t.Setenv("RAFFLE_STORE_PATH", "/tmp/r.db")
			t.Setenv("RAFFLE_DEFAULT_TARGET", "37")
			t.Setenv("RAFFLE_EXPORT_WORKERS", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/r.db")
				convey.So(cfg.DefaultTarget, convey.ShouldEqual, 37)
				convey.So(cfg.ExportWorkers, convey.ShouldEqual, 3)
				convey.So(cfg.ExportQueueSize, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			t.Setenv("RAFFLE_CONFIG", writeConfigFile(t, `
addr: ":9090"
export_dir: "/var/raffle/exports"
dedupe_size: 64
log_format: json
`))
			t.Setenv("RAFFLE_DEDUPE_SIZE", "128")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ExportDir, convey.ShouldEqual, "/var/raffle/exports")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 128)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			t.Setenv("RAFFLE_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			t.Setenv("RAFFLE_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a number is not a number", func() {
			t.Setenv("RAFFLE_DEFAULT_TARGET", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		cases := map[string]func(*config.Config){
			"addr must not be empty":          func(c *config.Config) { c.Addr = " " },
			"unknown store_driver":            func(c *config.Config) { c.StoreDriver = "postgres" },
			"store_path is required":          func(c *config.Config) { c.StoreDriver = config.StoreSQLite; c.StorePath = "" },
			"export_dir must not be empty":    func(c *config.Config) { c.ExportDir = "" },
			"default_target must be >= 1":     func(c *config.Config) { c.DefaultTarget = 0 },
			"export_queue_size must be":       func(c *config.Config) { c.ExportQueueSize = 0 },
			"export_workers must be positive": func(c *config.Config) { c.ExportWorkers = -1 },
			"dedupe_size must be positive":    func(c *config.Config) { c.DedupeSize = 0 },
		}

		convey.Convey("Then each broken setting is reported", func() {
			for want, mutate := range cases {
				c := config.New()
				mutate(c)
				err := c.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, want)
			}
		})
	})
}
