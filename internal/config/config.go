// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Wake behaviour
	Wake WakeConfig `mapstructure:"wake"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// WakeConfig controls how activity turns into wake broadcasts
type WakeConfig struct {
	// Interval is the minimum number of seconds between wake broadcasts
	Interval int `mapstructure:"interval"`

	// Command is an optional extra wake command, run in addition to the
	// built-in wakers
	Command string `mapstructure:"command"`

	// Prefer selects which device interface to watch when a joystick
	// exposes both: "js" (classic joystick node) or "event" (evdev node).
	// The js node is calibratable and far less chatty, so it is the default.
	Prefer string `mapstructure:"prefer"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Wake: WakeConfig{
			Interval: 30,
			Command:  "",
			Prefer:   "js",
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("joywake")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "joywake"))
		} else if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "joywake"))
		}
		viper.AddConfigPath("/etc/joywake")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("wake.interval", DefaultConfig.Wake.Interval)
	viper.SetDefault("wake.command", DefaultConfig.Wake.Command)
	viper.SetDefault("wake.prefer", DefaultConfig.Wake.Prefer)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validate() error {
	if c.Wake.Interval < 1 {
		return fmt.Errorf("wake.interval must be at least 1 second, got %d", c.Wake.Interval)
	}
	switch c.Wake.Prefer {
	case "js", "event":
	default:
		return fmt.Errorf("wake.prefer must be \"js\" or \"event\", got %q", c.Wake.Prefer)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}
