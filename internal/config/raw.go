package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// UnmarshalTOML accepts the same two shapes from TOML files.
func (l *IncludeList) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case string:
		*l = []string{x}
		return nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig mirrors one file. Nil pointers are keys the file leaves unset.
type RawConfig struct {
	Include  IncludeList `yaml:"include" toml:"include"`
	Backend  *string     `yaml:"backend" toml:"backend"`
	Display  *string     `yaml:"display" toml:"display"`
	LogLevel *string     `yaml:"log_level" toml:"log_level"`
	Loop     RawLoop     `yaml:"loop" toml:"loop"`
	Window   RawWindow   `yaml:"window" toml:"window"`
	Control  RawControl  `yaml:"control" toml:"control"`
}

type RawLoop struct {
	CoalesceThreshold *float64 `yaml:"coalesce_threshold" toml:"coalesce_threshold"`
	RefreshFallbackHz *float64 `yaml:"refresh_fallback_hz" toml:"refresh_fallback_hz"`
}

type RawWindow struct {
	Title  *string  `yaml:"title" toml:"title"`
	Width  *float64 `yaml:"width" toml:"width"`
	Height *float64 `yaml:"height" toml:"height"`
	Cursor *string  `yaml:"cursor" toml:"cursor"`
	Child  *bool    `yaml:"child" toml:"child"`
}

type RawControl struct {
	Enabled *bool   `yaml:"enabled" toml:"enabled"`
	Socket  *string `yaml:"socket" toml:"socket"`
}

// merge returns c with every key overlay sets replaced. Includes are not
// carried over; the loader resolves them before merging.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil
	pick(&out.Backend, overlay.Backend)
	pick(&out.Display, overlay.Display)
	pick(&out.LogLevel, overlay.LogLevel)

	pick(&out.Loop.CoalesceThreshold, overlay.Loop.CoalesceThreshold)
	pick(&out.Loop.RefreshFallbackHz, overlay.Loop.RefreshFallbackHz)

	pick(&out.Window.Title, overlay.Window.Title)
	pick(&out.Window.Width, overlay.Window.Width)
	pick(&out.Window.Height, overlay.Window.Height)
	pick(&out.Window.Cursor, overlay.Window.Cursor)
	pick(&out.Window.Child, overlay.Window.Child)

	pick(&out.Control.Enabled, overlay.Control.Enabled)
	pick(&out.Control.Socket, overlay.Control.Socket)
	return out
}

func pick[T any](dst **T, overlay *T) {
	if overlay != nil {
		*dst = overlay
	}
}
