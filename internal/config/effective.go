package config

import (
	"fmt"
)

// ValidationError reports an invalid key, with the file position that set
// it when known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Source.File, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	set(&cfg.Backend, raw.Backend)
	set(&cfg.Display, raw.Display)
	set(&cfg.LogLevel, raw.LogLevel)

	set(&cfg.Loop.CoalesceThreshold, raw.Loop.CoalesceThreshold)
	set(&cfg.Loop.RefreshFallbackHz, raw.Loop.RefreshFallbackHz)

	set(&cfg.Window.Title, raw.Window.Title)
	set(&cfg.Window.Width, raw.Window.Width)
	set(&cfg.Window.Height, raw.Window.Height)
	set(&cfg.Window.Cursor, raw.Window.Cursor)
	set(&cfg.Window.Child, raw.Window.Child)

	set(&cfg.Control.Enabled, raw.Control.Enabled)
	set(&cfg.Control.Socket, raw.Control.Socket)
	return cfg
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
