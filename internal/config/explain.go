package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at a dotted key path and where it
// came from.
//
// Supported paths:
//
//	backend
//	display
//	log_level
//	loop.coalesce_threshold
//	loop.refresh_fallback_hz
//	window.title
//	window.width
//	window.height
//	window.cursor
//	window.child
//	control.enabled
//	control.socket
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}
	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// Keys lists the paths Explain accepts.
func Keys() []string {
	return []string{
		"backend", "display", "log_level",
		"loop.coalesce_threshold", "loop.refresh_fallback_hz",
		"window.title", "window.width", "window.height", "window.cursor", "window.child",
		"control.enabled", "control.socket",
	}
}

func lookupValue(cfg *Config, path string) (any, error) {
	section, key, _ := strings.Cut(path, ".")
	switch section {
	case "backend":
		return leaf(path, key, cfg.Backend)
	case "display":
		return leaf(path, key, cfg.Display)
	case "log_level":
		return leaf(path, key, cfg.LogLevel)
	case "loop":
		switch key {
		case "coalesce_threshold":
			return cfg.Loop.CoalesceThreshold, nil
		case "refresh_fallback_hz":
			return cfg.Loop.RefreshFallbackHz, nil
		}
	case "window":
		switch key {
		case "title":
			return cfg.Window.Title, nil
		case "width":
			return cfg.Window.Width, nil
		case "height":
			return cfg.Window.Height, nil
		case "cursor":
			return cfg.Window.Cursor, nil
		case "child":
			return cfg.Window.Child, nil
		}
	case "control":
		switch key {
		case "enabled":
			return cfg.Control.Enabled, nil
		case "socket":
			return cfg.Control.Socket, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func leaf(path, rest string, v any) (any, error) {
	if rest != "" {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return v, nil
}
