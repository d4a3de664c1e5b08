package detector

import (
	"os"

	"github.com/thoth/thoth/pkg/integrations/hybrid"
	"github.com/thoth/thoth/pkg/window"
)

// New returns the window activator for the current session
func New() (window.Activator, error) {
	return hybrid.NewActivator()
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
