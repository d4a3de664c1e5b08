package window

import "strings"

// WindowInfo describes a top-level window managed by the display server
type WindowInfo struct {
	ID            uint32
	Class         string
	Instance      string
	Title         string
	PID           int
	DisplayServer string // "x11" or "wayland"
}

// Activator brings an already running application to the front
type Activator interface {
	// Activate focuses the first window whose class matches (case-insensitive).
	// It reports false when no window matched.
	Activate(class string) (bool, error)

	// IsAvailable checks if this activator can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type ("x11" or "wayland")
	GetDisplayServer() string

	// Close cleans up any resources used by the activator
	Close() error
}

// Lister is implemented by activators that can enumerate windows
type Lister interface {
	Windows() ([]WindowInfo, error)
}

// FindByClass returns the first window whose class or instance equals class,
// ignoring case.
func FindByClass(windows []WindowInfo, class string) (WindowInfo, bool) {
	for _, w := range windows {
		if equalFold(w.Class, class) || equalFold(w.Instance, class) {
			return w, true
		}
	}
	return WindowInfo{}, false
}

func equalFold(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
