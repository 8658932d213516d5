package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/detbench/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Tolerance, convey.ShouldEqual, 250)
				convey.So(cfg.Labels, convey.ShouldResemble, []string{"wifi", "lora", "zigbee"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("DETBENCH_ADDR", ":8080")
			t.Setenv("DETBENCH_QUEUE_SIZE", "64")
			t.Setenv("DETBENCH_WORKER_COUNT", "3")
			t.Setenv("DETBENCH_TOLERANCE", "100")
			t.Setenv("DETBENCH_SHUTDOWN_TIMEOUT", "3s")
			t.Setenv("DETBENCH_LABELS", "ble, wifi")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Tolerance, convey.ShouldEqual, 100)
				convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.Labels, convey.ShouldResemble, []string{"ble", "wifi"})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
# benchmark service
addr: ":9090"
queue_size: 300
scenario_interval: 20000
labels:
  - wifi
  - lora
`)
			t.Setenv("DETBENCH_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace defaults and the label list is not merged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.ScenarioInterval, convey.ShouldEqual, 20000)
				convey.So(cfg.ScenarioPadding, convey.ShouldEqual, 60)
				convey.So(cfg.Labels, convey.ShouldResemble, []string{"wifi", "lora"})
			})

			convey.Convey("And env vars override the file", func() {
				t.Setenv("DETBENCH_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			t.Setenv("DETBENCH_CONFIG", writeConfigFile(t, "addr: [unterminated"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML file does not exist", func() {
			t.Setenv("DETBENCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric env var does not parse", func() {
			t.Setenv("DETBENCH_QUEUE_SIZE", "lots")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the tolerance is negative", func() {
			t.Setenv("DETBENCH_TOLERANCE", "-5")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DETBENCH_CONFIG", "DETBENCH_ADDR", "DETBENCH_QUEUE_SIZE", "DETBENCH_WORKER_COUNT",
		"DETBENCH_TOLERANCE", "DETBENCH_LABELS", "DETBENCH_LOG_LEVEL", "DETBENCH_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
