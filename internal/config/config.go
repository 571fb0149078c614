// Package config loads the winloop host configuration. Files are YAML
// (decoded strictly) or TOML, may include other files, and are merged over
// DefaultConfig. Every effective value can be traced back to the file and
// line that set it.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winloop/platform"
)

// Backend names accepted by the backend key.
const (
	BackendAuto     = "auto"
	BackendX11      = "x11"
	BackendGLFW     = "glfw"
	BackendHeadless = "headless"
)

// Config is the effective configuration.
type Config struct {
	Backend  string        `yaml:"backend" toml:"backend"`
	Display  string        `yaml:"display,omitempty" toml:"display,omitempty"`
	LogLevel string        `yaml:"log_level" toml:"log_level"`
	Loop     LoopConfig    `yaml:"loop" toml:"loop"`
	Window   WindowConfig  `yaml:"window" toml:"window"`
	Control  ControlConfig `yaml:"control" toml:"control"`
}

// LoopConfig tunes the event loop and backends.
type LoopConfig struct {
	// CoalesceThreshold is the distance in logical pixels under which a
	// pointer move is dropped. Zero selects the default and a negative value
	// keeps every move.
	CoalesceThreshold float64 `yaml:"coalesce_threshold" toml:"coalesce_threshold"`
	// RefreshFallbackHz paces refresh ticks on monitors without a known
	// refresh rate.
	RefreshFallbackHz float64 `yaml:"refresh_fallback_hz" toml:"refresh_fallback_hz"`
}

// WindowConfig describes the window the run command opens.
type WindowConfig struct {
	Title  string  `yaml:"title" toml:"title"`
	Width  float64 `yaml:"width" toml:"width"`
	Height float64 `yaml:"height" toml:"height"`
	Cursor string  `yaml:"cursor" toml:"cursor"`
	// Child also opens a child window inside the main one.
	Child bool `yaml:"child" toml:"child"`
}

// ControlConfig configures the control socket.
type ControlConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Socket overrides the default path in the runtime directory.
	Socket string `yaml:"socket,omitempty" toml:"socket,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:  BackendAuto,
		LogLevel: "info",
		Loop: LoopConfig{
			CoalesceThreshold: 0.5,
			RefreshFallbackHz: 60,
		},
		Window: WindowConfig{
			Title:  "winloop",
			Width:  640,
			Height: 400,
			Cursor: platform.CursorArrow.String(),
		},
		Control: ControlConfig{Enabled: true},
	}
}

// DefaultConfigPath returns ~/.config/winloop/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "winloop", "config.yaml"), nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendX11, BackendGLFW, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: auto, x11, glfw, headless")}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if math.IsNaN(c.Loop.CoalesceThreshold) || math.IsInf(c.Loop.CoalesceThreshold, 0) {
		return &ValidationError{Path: "loop.coalesce_threshold", Err: fmt.Errorf("coalesce_threshold must be a finite number")}
	}
	if c.Loop.RefreshFallbackHz <= 0 || c.Loop.RefreshFallbackHz > 1000 {
		return &ValidationError{Path: "loop.refresh_fallback_hz", Err: fmt.Errorf("refresh_fallback_hz must be in (0, 1000]")}
	}
	if strings.TrimSpace(c.Window.Title) == "" {
		return &ValidationError{Path: "window.title", Err: fmt.Errorf("title must not be empty")}
	}
	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if _, err := platform.ParseCursor(c.Window.Cursor); err != nil {
		return &ValidationError{Path: "window.cursor", Err: err}
	}
	return nil
}

// Cursor returns the parsed window cursor. Validate guarantees it parses.
func (c *Config) Cursor() platform.Cursor {
	cur, _ := platform.ParseCursor(c.Window.Cursor)
	return cur
}

// ParseLogLevel maps a log_level value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be one of: debug, info, warning, error")
	}
}

// Save validates c and writes it as YAML to path, creating the directory.
//
// Note: this marshals the effective config and will not preserve comments or
// includes from the original file.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
