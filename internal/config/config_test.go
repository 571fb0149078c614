package config

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/winloop/platform"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Cursor() != platform.CursorArrow {
		t.Fatalf("default cursor = %v", cfg.Cursor())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != BackendAuto || len(res.Files) != 0 {
		t.Fatalf("got %+v files=%v", res.Config, res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Title != "winloop" {
		t.Fatalf("title = %q", res.Config.Window.Title)
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"backend: headless",
		"display: \":1\"",
		"loop:",
		"  coalesce_threshold: 2",
		"window:",
		"  width: 800",
		"  cursor: crosshair",
		"  child: true",
		"control:",
		"  enabled: false",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Backend != BackendHeadless || cfg.Display != ":1" {
		t.Fatalf("backend/display = %q/%q", cfg.Backend, cfg.Display)
	}
	if cfg.Loop.CoalesceThreshold != 2 || cfg.Loop.RefreshFallbackHz != 60 {
		t.Fatalf("loop = %+v", cfg.Loop)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 400 || !cfg.Window.Child || cfg.Cursor() != platform.CursorCrosshair {
		t.Fatalf("window = %+v", cfg.Window)
	}
	if cfg.Control.Enabled {
		t.Fatalf("control should be disabled")
	}
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  colour: red\n")

	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: info\nwindow:\n  height: -3\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	if verr.Path != "window.height" || verr.Source.Line != 3 {
		t.Fatalf("error = %+v", verr)
	}
	if !strings.Contains(err.Error(), ":3:") {
		t.Fatalf("message lacks line: %v", err)
	}
}

func TestLoadFromPath_IncludesMergeInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-size.yaml"), "window:\n  width: 300\n  height: 200\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-title.yaml"), "window:\n  title: included\n  width: 310\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\nwindow:\n  height: 250\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := res.Config.Window
	if w.Title != "included" || w.Width != 310 || w.Height != 250 {
		t.Fatalf("window = %+v", w)
	}
	if len(res.Files) != 3 || !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("files = %v", res.Files)
	}
	if src := res.Sources["window.width"]; !strings.HasSuffix(src.File, "20-title.yaml") {
		t.Fatalf("width source = %+v", src)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	if _, err := LoadFromPath(filepath.Join(dir, "a.yaml")); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "log_level: debug\n")
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, strings.Join([]string{
		`include = ["base.yaml"]`,
		`backend = "x11"`,
		`[window]`,
		`title = "from toml"`,
		`width = 512.0`,
		`[control]`,
		`socket = "/tmp/w.sock"`,
		``,
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Backend != BackendX11 || cfg.LogLevel != "debug" || cfg.Window.Title != "from toml" || cfg.Window.Width != 512 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Control.Socket != "/tmp/w.sock" {
		t.Fatalf("socket = %q", cfg.Control.Socket)
	}
	if src := res.Sources["window.title"]; src.Kind != SourceFile || !strings.HasSuffix(src.File, "config.toml") {
		t.Fatalf("title source = %+v", src)
	}
}

func TestLoadFromPath_TOMLRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[window]\ncolour = \"red\"\n")

	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "window.colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"backend", func(c *Config) { c.Backend = "wayland" }, "backend"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"threshold", func(c *Config) { c.Loop.CoalesceThreshold = math.NaN() }, "loop.coalesce_threshold"},
		{"fallback", func(c *Config) { c.Loop.RefreshFallbackHz = 0 }, "loop.refresh_fallback_hz"},
		{"title", func(c *Config) { c.Window.Title = "  " }, "window.title"},
		{"width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"cursor", func(c *Config) { c.Window.Cursor = "spinny" }, "window.cursor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("Validate = %v, want error at %s", err, tt.path)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if l, err := ParseLogLevel("warning"); err != nil || l != slog.LevelWarn {
		t.Fatalf("warning = %v, %v", l, err)
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatalf("unknown level accepted")
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  title: hello\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	v, src, err := Explain(res, "window.title")
	if err != nil || v != "hello" || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("Explain(window.title) = %v %+v %v", v, src, err)
	}
	v, src, err = Explain(res, "loop.refresh_fallback_hz")
	if err != nil || v != 60.0 || src.Kind != SourceDefault {
		t.Fatalf("Explain(loop.refresh_fallback_hz) = %v %+v %v", v, src, err)
	}
	if _, _, err := Explain(res, "window.colour"); err == nil {
		t.Fatalf("unknown path accepted")
	}
	for _, k := range Keys() {
		if _, _, err := Explain(res, k); err != nil {
			t.Fatalf("Explain(%s): %v", k, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Window.Title = "saved"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if res.Config.Window.Title != "saved" {
		t.Fatalf("title = %q", res.Config.Window.Title)
	}
}
