package socket

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultDisplay is used when neither the config nor the environment names
// a display.
const DefaultDisplay = "wayland-0"

// Config selects the compositor socket.
type Config struct {
	// Display is a socket name relative to RuntimeDir, or an absolute path.
	// Empty falls back to $WAYLAND_DISPLAY, then DefaultDisplay.
	Display string

	// RuntimeDir defaults to $XDG_RUNTIME_DIR.
	RuntimeDir string
}

// ErrNoRuntimeDir is returned when a relative display name cannot be
// resolved.
var ErrNoRuntimeDir = errors.New("socket: XDG_RUNTIME_DIR is not set")

// Address resolves the socket path for cfg.
func Address(cfg Config) (string, error) {
	display := cfg.Display
	if display == "" {
		display = os.Getenv("WAYLAND_DISPLAY")
	}
	if display == "" {
		display = DefaultDisplay
	}
	if filepath.IsAbs(display) {
		return display, nil
	}

	dir := cfg.RuntimeDir
	if dir == "" {
		dir = os.Getenv("XDG_RUNTIME_DIR")
	}
	if dir == "" {
		return "", ErrNoRuntimeDir
	}
	return filepath.Join(dir, display), nil
}

// inheritedSocket returns the descriptor handed over in $WAYLAND_SOCKET, if
// any. The variable is cleared so children do not inherit it.
func inheritedSocket() (int, bool, error) {
	v, ok := os.LookupEnv("WAYLAND_SOCKET")
	if !ok || v == "" {
		return 0, false, nil
	}
	_ = os.Unsetenv("WAYLAND_SOCKET")
	fd, err := strconv.Atoi(v)
	if err != nil || fd < 0 {
		return 0, false, fmt.Errorf("socket: invalid WAYLAND_SOCKET %q", v)
	}
	return fd, true, nil
}
