// Package runtimepath locates per-user runtime files such as the control
// socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketName is the control socket's file name inside Dir.
const SocketName = "winloop.sock"

// Dir returns the per-user runtime directory, trying in order:
// $XDG_RUNTIME_DIR, /run/user/<uid>, and /tmp/winloop-runtime-<uid>
// (created with mode 0700).
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	runUser := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUser); err == nil && info.IsDir() {
		return runUser, nil
	}

	tmp := fmt.Sprintf("/tmp/winloop-runtime-%d", uid)
	if err := os.MkdirAll(tmp, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	return tmp, nil
}

// SocketPath resolves the control socket path. A non-empty override wins;
// otherwise the socket lives in Dir.
func SocketPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}
