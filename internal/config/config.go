// Package config loads the demo program configuration from environment
// variables and command-line flags.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is set at build time via -ldflags
// Default "dev" is used for development builds
var Version = "dev"

// Config holds all application configuration loaded from environment variables.
// All fields have sensible defaults if environment variables are not set.
type Config struct {
	// LogLevel controls logging verbosity: "debug", "info", "warn", "error" (default: "info")
	LogLevel string

	// LogDir is the directory for the rotated log file (default: "", stdout only)
	LogDir string

	// Serve runs the HTTP server instead of the one-shot examples (default: false)
	Serve bool

	// ListenAddr is the HTTP listen address in serve mode (default: ":3091")
	ListenAddr string

	// TickPeriod is how often stopwatch snapshots are pushed to websocket clients (default: 1s)
	TickPeriod time.Duration

	// ShutdownTimeout bounds graceful HTTP shutdown (default: 10s)
	ShutdownTimeout time.Duration

	// ExampleScale multiplies every delay of the example program (default: 1.0)
	// Values below 1 make the examples run faster.
	ExampleScale float64
}

// Global singleton
var cfg *Config

// Load reads configuration from environment variables with sensible defaults.
// Should be called once at application startup.
func Load() *Config {
	cfg = &Config{
		LogLevel:        strings.ToLower(getEnvOrDefault("TIMER_LOG_LEVEL", "info")),
		LogDir:          getEnvOrDefault("TIMER_LOG_DIR", ""),
		Serve:           getEnvBoolOrDefault("TIMER_SERVE", false),
		ListenAddr:      getEnvOrDefault("TIMER_LISTEN_ADDR", ":3091"),
		TickPeriod:      getEnvDurationOrDefault("TIMER_TICK_PERIOD", time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("TIMER_SHUTDOWN_TIMEOUT", 10*time.Second),
		ExampleScale:    getEnvFloatOrDefault("TIMER_EXAMPLE_SCALE", 1.0),
	}
	cfg.normalize()
	return cfg
}

// normalize replaces invalid values with their defaults.
func (c *Config) normalize() {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		c.LogLevel = "info"
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.ExampleScale <= 0 {
		c.ExampleScale = 1.0
	}
}

// Scaled returns d multiplied by ExampleScale.
func (c *Config) Scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.ExampleScale)
}

// Get returns the current configuration. Panics if Load() hasn't been called.
func Get() *Config {
	if cfg == nil {
		panic("config.Load() must be called before config.Get()")
	}
	return cfg
}

// SetForTesting allows tests to set the global config without calling Load().
// This should ONLY be used in test code.
func SetForTesting(c *Config) {
	cfg = c
}

// NewTestConfig returns a minimal Config suitable for unit tests.
func NewTestConfig() *Config {
	return &Config{
		LogLevel:        "debug",
		LogDir:          "",
		Serve:           false,
		ListenAddr:      "127.0.0.1:0",
		TickPeriod:      10 * time.Millisecond,
		ShutdownTimeout: time.Second,
		ExampleScale:    0.01,
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault returns the environment variable as a duration or the default if not set/invalid.
// Accepts Go duration strings like "30s", "5m", "72h".
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the environment variable as a bool or the default if not set.
// Accepts "true", "1", "yes" as true values (case-insensitive).
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

// getEnvFloatOrDefault returns the environment variable as a float64 or the default if not set/invalid.
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FlagOverrides holds command-line flag values that can override environment variables
type FlagOverrides struct {
	LogLevel     *string
	LogDir       *string
	Serve        *bool
	ListenAddr   *string
	TickPeriod   *time.Duration
	ExampleScale *float64
}

// ApplyFlags applies command-line flag overrides to the configuration.
// Should be called after Load() and after flag parsing.
// Only non-nil values with non-default flag values will override.
func ApplyFlags(flags FlagOverrides) {
	if cfg == nil {
		return
	}

	if flags.LogLevel != nil && *flags.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*flags.LogLevel)
	}
	if flags.LogDir != nil && *flags.LogDir != "" {
		cfg.LogDir = *flags.LogDir
	}
	if flags.Serve != nil && *flags.Serve {
		cfg.Serve = true
	}
	if flags.ListenAddr != nil && *flags.ListenAddr != "" {
		cfg.ListenAddr = *flags.ListenAddr
	}
	if flags.TickPeriod != nil && *flags.TickPeriod != 0 {
		cfg.TickPeriod = *flags.TickPeriod
	}
	if flags.ExampleScale != nil && *flags.ExampleScale != 0 {
		cfg.ExampleScale = *flags.ExampleScale
	}
	cfg.normalize()
}
