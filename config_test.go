package simulation_test

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := simulation.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Units(cfg.MonitorInterval) != 3*time.Second {
		t.Errorf("monitor interval = %v, want 3s", cfg.Units(cfg.MonitorInterval))
	}
	if cfg.NearCompletionThreshold != 4 {
		t.Errorf("threshold = %d, want 4", cfg.NearCompletionThreshold)
	}
}

func TestValidate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*simulation.Config)
	}{
		{"negative workers", func(c *simulation.Config) { c.Workers = -1 }},
		{"zero time unit", func(c *simulation.Config) { c.TimeUnit = 0 }},
		{"zero poll timeout", func(c *simulation.Config) { c.PollTimeout = 0 }},
		{"zero monitor interval", func(c *simulation.Config) { c.MonitorInterval = 0 }},
		{"zero status timeout", func(c *simulation.Config) { c.StatusTimeout = 0 }},
		{"negative threshold", func(c *simulation.Config) { c.NearCompletionThreshold = -1 }},
		{"unknown policy", func(c *simulation.Config) { c.Policy = "random" }},
		{"unknown mode", func(c *simulation.Config) { c.Mode = "thread" }},
		{"unknown transport", func(c *simulation.Config) { c.Transport = "tcp" }},
		{"unknown codec", func(c *simulation.Config) { c.Codec = "xml" }},
		{"unknown log level", func(c *simulation.Config) { c.LogLevel = "loud" }},
		{"rate without burst", func(c *simulation.Config) { c.SubmitRate = 1; c.SubmitBurst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := simulation.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, simulation.ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	data := []byte(`
workers: 4
time_unit: 250ms
monitor_interval: 5
near_completion_threshold: 2
policy: round-robin
log_level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := simulation.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.TimeUnit != 250*time.Millisecond {
		t.Errorf("TimeUnit = %v, want 250ms", cfg.TimeUnit)
	}
	if cfg.Units(cfg.MonitorInterval) != 1250*time.Millisecond {
		t.Errorf("monitor interval = %v, want 1.25s", cfg.Units(cfg.MonitorInterval))
	}
	if cfg.Policy != simulation.PolicyRoundRobin {
		t.Errorf("Policy = %q", cfg.Policy)
	}
	// Untouched fields keep their defaults.
	if cfg.StatusTimeout != 2 {
		t.Errorf("StatusTimeout = %d, want default 2", cfg.StatusTimeout)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mode: cloud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := simulation.LoadConfig(path); !errors.Is(err, simulation.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := simulation.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := simulation.ParseLogLevel("WARN")
	if err != nil || lvl != slog.LevelWarn {
		t.Fatalf("ParseLogLevel(WARN) = %v, %v", lvl, err)
	}
}

func TestErrorAliases(t *testing.T) {
	wrapped := fmt.Errorf("send RUN: %w", bus.ErrClosed)
	if !errors.Is(wrapped, simulation.ErrChannelClosed) {
		t.Error("bus.ErrClosed should match ErrChannelClosed")
	}
	wrapped = fmt.Errorf("decode: %w", command.ErrMalformed)
	if !errors.Is(wrapped, simulation.ErrMalformedCommand) {
		t.Error("command.ErrMalformed should match ErrMalformedCommand")
	}
}
