package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/1broseidon/winloop/internal/config"
	"github.com/1broseidon/winloop/platform"
	"github.com/1broseidon/winloop/platform/headless"
	"github.com/1broseidon/winloop/platform/x11"
)

// openBackend connects the backend cfg selects. "auto" prefers X11 when a
// display is reachable, then GLFW when built in.
func openBackend(cfg *config.Config, logger *slog.Logger) (platform.Backend, error) {
	switch cfg.Backend {
	case config.BackendX11:
		return openX11(cfg, logger)
	case config.BackendGLFW:
		return newGLFWBackend(cfg, logger)
	case config.BackendHeadless:
		return openHeadless(cfg), nil
	case config.BackendAuto:
		if cfg.Display != "" || os.Getenv("DISPLAY") != "" {
			b, err := openX11(cfg, logger)
			if err == nil {
				return b, nil
			}
			logger.Warn("x11 unavailable, trying glfw", "error", err)
		}
		if glfwAvailable {
			return newGLFWBackend(cfg, logger)
		}
		return nil, fmt.Errorf("no display backend available: set DISPLAY or build with -tags glfw")
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func openX11(cfg *config.Config, logger *slog.Logger) (platform.Backend, error) {
	return x11.New(x11.Options{
		Display:           cfg.Display,
		RefreshFallbackHz: cfg.Loop.RefreshFallbackHz,
		Logger:            logger,
	})
}

// openHeadless returns an offscreen backend with one virtual monitor that
// ticks at the fallback rate.
func openHeadless(cfg *config.Config) platform.Backend {
	return headless.New(headless.Options{
		Monitors: []platform.MonitorInfo{{
			ID:          0,
			Name:        "virtual-0",
			Bounds:      platform.Rect{Width: 1920, Height: 1080},
			RefreshRate: cfg.Loop.RefreshFallbackHz,
		}},
		RefreshHz: cfg.Loop.RefreshFallbackHz,
	})
}
