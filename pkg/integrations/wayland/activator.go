package wayland

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/thoth/thoth/pkg/window"
)

// Runner executes an external command and returns its stdout
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Activator implements window.Activator for wlroots compositors that expose
// an IPC tool: sway (swaymsg) and Hyprland (hyprctl)
type Activator struct {
	compositor string
	run        Runner
	lookPath   func(string) (string, error)
}

// NewActivator creates a Wayland activator for the running compositor
func NewActivator() *Activator {
	a := &Activator{run: execRunner, lookPath: exec.LookPath}
	a.compositor = detectCompositor(os.Getenv)
	return a
}

// newActivatorWith is used by tests to stub the compositor and commands
func newActivatorWith(compositor string, run Runner) *Activator {
	return &Activator{
		compositor: compositor,
		run:        run,
		lookPath:   func(p string) (string, error) { return p, nil },
	}
}

// detectCompositor uses the IPC socket variables each compositor exports
func detectCompositor(getenv func(string) string) string {
	switch {
	case getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		return "hyprland"
	case getenv("SWAYSOCK") != "":
		return "sway"
	}

	desktop := strings.ToLower(getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "hyprland"):
		return "hyprland"
	case strings.Contains(desktop, "sway"):
		return "sway"
	case strings.Contains(desktop, "gnome"):
		return "gnome"
	case strings.Contains(desktop, "kde"):
		return "kde"
	}
	return "unknown"
}

// Compositor returns the detected compositor name
func (a *Activator) Compositor() string {
	return a.compositor
}

// IsAvailable checks if the compositor's IPC tool is installed
func (a *Activator) IsAvailable() bool {
	switch a.compositor {
	case "sway":
		return a.commandExists("swaymsg")
	case "hyprland":
		return a.commandExists("hyprctl")
	default:
		return false
	}
}

func (a *Activator) commandExists(cmd string) bool {
	_, err := a.lookPath(cmd)
	return err == nil
}

// GetDisplayServer returns "wayland"
func (a *Activator) GetDisplayServer() string {
	return "wayland"
}

// Windows lists toplevel windows from the compositor
func (a *Activator) Windows() ([]window.WindowInfo, error) {
	switch a.compositor {
	case "sway":
		out, err := a.run("swaymsg", "-t", "get_tree", "-r")
		if err != nil {
			return nil, fmt.Errorf("failed to execute swaymsg: %w", err)
		}
		return parseSwayTree(out)
	case "hyprland":
		out, err := a.run("hyprctl", "clients", "-j")
		if err != nil {
			return nil, fmt.Errorf("failed to execute hyprctl: %w", err)
		}
		return parseHyprlandClients(out)
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", a.compositor)
	}
}

// Activate focuses the first window of class
func (a *Activator) Activate(class string) (bool, error) {
	windows, err := a.Windows()
	if err != nil {
		return false, err
	}
	w, ok := window.FindByClass(windows, class)
	if !ok {
		return false, nil
	}

	switch a.compositor {
	case "sway":
		// sway ids are container ids, stable for the window's lifetime
		if _, err := a.run("swaymsg", fmt.Sprintf("[con_id=%d]", w.ID), "focus"); err != nil {
			return false, fmt.Errorf("failed to focus window: %w", err)
		}
	case "hyprland":
		out, err := a.run("hyprctl", "dispatch", "focuswindow", "class:^("+regexp.QuoteMeta(w.Class)+")$")
		if err != nil {
			return false, fmt.Errorf("failed to focus window: %w", err)
		}
		if !strings.HasPrefix(strings.TrimSpace(string(out)), "ok") {
			return false, fmt.Errorf("hyprctl: %s", strings.TrimSpace(string(out)))
		}
	}
	return true, nil
}

type swayNode struct {
	ID               uint32     `json:"id"`
	Type             string     `json:"type"`
	Name             string     `json:"name"`
	AppID            *string    `json:"app_id"`
	PID              int        `json:"pid"`
	WindowProperties *swayProps `json:"window_properties"`
	Nodes            []swayNode `json:"nodes"`
	FloatingNodes    []swayNode `json:"floating_nodes"`
}

type swayProps struct {
	Class    string `json:"class"`
	Instance string `json:"instance"`
}

func parseSwayTree(data []byte) ([]window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	var out []window.WindowInfo
	var walk func(n swayNode)
	walk = func(n swayNode) {
		if n.Type == "con" || n.Type == "floating_con" {
			info := window.WindowInfo{ID: n.ID, Title: n.Name, PID: n.PID, DisplayServer: "wayland"}
			switch {
			case n.AppID != nil && *n.AppID != "":
				info.Class = *n.AppID
			case n.WindowProperties != nil:
				// XWayland client
				info.Class = n.WindowProperties.Class
				info.Instance = n.WindowProperties.Instance
			}
			if info.Class != "" {
				out = append(out, info)
			}
		}
		for _, c := range n.Nodes {
			walk(c)
		}
		for _, c := range n.FloatingNodes {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

type hyprClient struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
	PID          int    `json:"pid"`
}

func parseHyprlandClients(data []byte) ([]window.WindowInfo, error) {
	var clients []hyprClient
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl clients: %w", err)
	}

	out := make([]window.WindowInfo, 0, len(clients))
	for _, c := range clients {
		var id uint64
		fmt.Sscanf(strings.TrimPrefix(c.Address, "0x"), "%x", &id)
		out = append(out, window.WindowInfo{
			ID:            uint32(id),
			Class:         c.Class,
			Instance:      c.InitialClass,
			Title:         c.Title,
			PID:           c.PID,
			DisplayServer: "wayland",
		})
	}
	return out, nil
}

// Close cleans up resources
func (a *Activator) Close() error {
	return nil
}
