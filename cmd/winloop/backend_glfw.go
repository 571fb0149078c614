//go:build glfw

package main

import (
	"log/slog"
	"runtime"

	"github.com/1broseidon/winloop/internal/config"
	"github.com/1broseidon/winloop/platform"
	"github.com/1broseidon/winloop/platform/glfw"
)

const glfwAvailable = true

// GLFW must run on the main thread. The loop is created on the main
// goroutine, so pin it there before main starts.
func init() {
	runtime.LockOSThread()
}

func newGLFWBackend(cfg *config.Config, logger *slog.Logger) (platform.Backend, error) {
	return glfw.New(glfw.Options{
		RefreshFallbackHz: cfg.Loop.RefreshFallbackHz,
		Logger:            logger,
	})
}
