//go:build !glfw

package main

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/winloop/internal/config"
	"github.com/1broseidon/winloop/platform"
)

const glfwAvailable = false

func newGLFWBackend(*config.Config, *slog.Logger) (platform.Backend, error) {
	return nil, errors.New("glfw backend not built in: rebuild with -tags glfw")
}
