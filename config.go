package simulation

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Assignment policies.
const (
	PolicyFirstIdle  = "first-idle"
	PolicyRoundRobin = "round-robin"
)

// Worker run modes.
const (
	ModeInProcess = "inprocess"
	ModeProcess   = "process"
)

// Child process transports.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Config holds configuration for the whole simulation. Fields counted in
// time units are scaled by TimeUnit at use sites via [Config.Units].
type Config struct {
	// Workers is the size of the worker pool. Zero means ask the operator.
	Workers int `yaml:"workers"`

	// TimeUnit is the wall-clock length of one simulated time unit.
	TimeUnit time.Duration `yaml:"time_unit"`

	// PollTimeout is how long a worker waits for a command per loop, in units.
	PollTimeout int `yaml:"poll_timeout"`

	// AssignInterval is the assignment loop's yield between iterations.
	AssignInterval time.Duration `yaml:"assign_interval"`

	// MonitorInterval is the period between status reports, in units.
	MonitorInterval int `yaml:"monitor_interval"`

	// StatusTimeout bounds how long the monitor waits for replies, in units.
	StatusTimeout int `yaml:"status_timeout"`

	// NearCompletionThreshold flags workers with at most this many units left.
	NearCompletionThreshold int `yaml:"near_completion_threshold"`

	// Policy selects among idle workers: "first-idle" or "round-robin".
	Policy string `yaml:"policy"`

	// Mode runs workers as goroutines ("inprocess") or child processes ("process").
	Mode string `yaml:"mode"`

	// Transport connects child processes: "stdio" or "websocket".
	Transport string `yaml:"transport"`

	// Codec encodes commands on process transports: "msgpack" or "json".
	Codec string `yaml:"codec"`

	// ShutdownTimeout is the grace period before workers are killed.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SubmitRate limits operator submissions per second. Zero disables it.
	SubmitRate float64 `yaml:"submit_rate"`

	// SubmitBurst is the token bucket size when SubmitRate is set.
	SubmitBurst int `yaml:"submit_burst"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// AuditLog, when set, is a file that receives one JSON audit event per
	// lifecycle hook.
	AuditLog string `yaml:"audit_log"`
}

// DefaultConfig returns a Config with the classic simulator timings: one
// second per unit, a status report every three units.
func DefaultConfig() Config {
	return Config{
		Workers:                 2,
		TimeUnit:                time.Second,
		PollTimeout:             2,
		AssignInterval:          50 * time.Millisecond,
		MonitorInterval:         3,
		StatusTimeout:           2,
		NearCompletionThreshold: 4,
		Policy:                  PolicyFirstIdle,
		Mode:                    ModeInProcess,
		Transport:               TransportStdio,
		Codec:                   "msgpack",
		ShutdownTimeout:         10 * time.Second,
		SubmitBurst:             1,
		LogLevel:                "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
// Workers may be zero here; the CLI resolves it interactively.
func (c Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	case c.TimeUnit <= 0:
		return fmt.Errorf("%w: time_unit must be positive", ErrInvalidConfig)
	case c.PollTimeout <= 0:
		return fmt.Errorf("%w: poll_timeout must be positive", ErrInvalidConfig)
	case c.AssignInterval <= 0:
		return fmt.Errorf("%w: assign_interval must be positive", ErrInvalidConfig)
	case c.MonitorInterval <= 0:
		return fmt.Errorf("%w: monitor_interval must be positive", ErrInvalidConfig)
	case c.StatusTimeout <= 0:
		return fmt.Errorf("%w: status_timeout must be positive", ErrInvalidConfig)
	case c.NearCompletionThreshold < 0:
		return fmt.Errorf("%w: near_completion_threshold must be >= 0", ErrInvalidConfig)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdown_timeout must be >= 0", ErrInvalidConfig)
	case c.SubmitRate < 0:
		return fmt.Errorf("%w: submit_rate must be >= 0", ErrInvalidConfig)
	case c.SubmitRate > 0 && c.SubmitBurst < 1:
		return fmt.Errorf("%w: submit_burst must be >= 1 when submit_rate is set", ErrInvalidConfig)
	}

	if !oneOf(c.Policy, PolicyFirstIdle, PolicyRoundRobin) {
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
	if !oneOf(c.Mode, ModeInProcess, ModeProcess) {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if !oneOf(c.Transport, TransportStdio, TransportWebSocket) {
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	if !oneOf(c.Codec, "msgpack", "json") {
		return fmt.Errorf("%w: unknown codec %q", ErrInvalidConfig, c.Codec)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Units converts a count of time units to wall-clock time.
func (c Config) Units(n int) time.Duration {
	return time.Duration(n) * c.TimeUnit
}

// ParseLogLevel maps a config level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
