package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment
// variables. CLI flags may override Host and Port.
type AppConfig struct {
	// Host is the address the HTTP server binds to. Defaults to localhost.
	Host string `envconfig:"HOST" default:"localhost"`

	// Port is the HTTP server port. Defaults to 8000.
	Port int `envconfig:"PORT" default:"8000"`

	// DataDir is the root data directory. Defaults to ~/.quecore.
	DataDir string `envconfig:"QUECORE_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// QueueSize is the capacity of the event bus dispatch queue.
	QueueSize int `envconfig:"QUECORE_QUEUE_SIZE" default:"1000"`

	// HeartbeatInterval is the delay between runtime heartbeat events, in seconds.
	HeartbeatInterval int `envconfig:"QUECORE_HEARTBEAT_INTERVAL" default:"30"`

	// HandlerTimeoutMS bounds each event handler invocation, in milliseconds.
	// Zero disables the bound.
	HandlerTimeoutMS int `envconfig:"QUECORE_HANDLER_TIMEOUT_MS" default:"0"`

	// ShellTimeout is the maximum run time of the shell_exec tool, in seconds.
	ShellTimeout int `envconfig:"QUECORE_SHELL_TIMEOUT" default:"30"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.quecore if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".quecore")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (<DataDir>/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DatabasePath returns the path to the sqlite database file.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "quecore.db")
}

// HeartbeatDuration returns HeartbeatInterval as a time.Duration.
func (c *AppConfig) HeartbeatDuration() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

// HandlerTimeout returns HandlerTimeoutMS as a time.Duration.
func (c *AppConfig) HandlerTimeout() time.Duration {
	return time.Duration(c.HandlerTimeoutMS) * time.Millisecond
}

// ShellTimeoutDuration returns ShellTimeout as a time.Duration.
func (c *AppConfig) ShellTimeoutDuration() time.Duration {
	return time.Duration(c.ShellTimeout) * time.Second
}
