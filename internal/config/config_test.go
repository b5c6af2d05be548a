package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "joywake.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func reset() {
	viper.Reset()
	cfg = nil
	configPathOverride = ""
}

func TestInit(t *testing.T) {
	t.Run("defaults when no config exists", func(t *testing.T) {
		reset()
		t.Setenv("HOME", t.TempDir())

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		cfg := Get()
		if cfg.Wake.Interval != 30 {
			t.Errorf("expected default interval 30, got %d", cfg.Wake.Interval)
		}
		if cfg.Wake.Prefer != "js" {
			t.Errorf("expected default prefer \"js\", got %q", cfg.Wake.Prefer)
		}
		if cfg.Wake.Command != "" {
			t.Errorf("expected no default command, got %q", cfg.Wake.Command)
		}
	})

	t.Run("reads values from file", func(t *testing.T) {
		reset()
		SetConfigPath(writeConfig(t, `
[wake]
interval = 60
command = "xdotool key shift"
prefer = "event"

[logging]
log_level = "debug"
`))

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		cfg := Get()
		if cfg.Wake.Interval != 60 {
			t.Errorf("expected interval 60, got %d", cfg.Wake.Interval)
		}
		if cfg.Wake.Command != "xdotool key shift" {
			t.Errorf("unexpected command %q", cfg.Wake.Command)
		}
		if cfg.Wake.Prefer != "event" {
			t.Errorf("expected prefer \"event\", got %q", cfg.Wake.Prefer)
		}
		if cfg.Logging.LogLevel != "debug" {
			t.Errorf("expected log level debug, got %q", cfg.Logging.LogLevel)
		}
	})

	t.Run("rejects bad interval", func(t *testing.T) {
		reset()
		SetConfigPath(writeConfig(t, "[wake]\ninterval = 0\n"))

		if err := Init(); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("rejects unknown interface preference", func(t *testing.T) {
		reset()
		SetConfigPath(writeConfig(t, "[wake]\nprefer = \"gamepad\"\n"))

		if err := Init(); err == nil {
			t.Error("expected error for unknown prefer value")
		}
	})
}
