package x11

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/thoth/thoth/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Activator implements window.Activator over EWMH
type Activator struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewActivator creates an X11 activator. The connection is opened on first use.
func NewActivator() *Activator {
	return &Activator{atoms: make(map[string]xproto.Atom)}
}

// IsAvailable reports whether an X display is configured
func (a *Activator) IsAvailable() bool {
	return os.Getenv("DISPLAY") != ""
}

// GetDisplayServer returns "x11"
func (a *Activator) GetDisplayServer() string {
	return "x11"
}

func (a *Activator) connect() error {
	if a.conn != nil {
		return nil
	}
	if !a.IsAvailable() {
		return fmt.Errorf("DISPLAY is not set")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		a.atoms[name] = reply.Atom
	}

	a.conn = conn
	a.root = xproto.Setup(conn).DefaultScreen(conn).Root
	return nil
}

func (a *Activator) getProperty(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(a.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// Windows lists the windows in _NET_CLIENT_LIST
func (a *Activator) Windows() ([]window.WindowInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a.windows()
}

func (a *Activator) windows() ([]window.WindowInfo, error) {
	data, err := a.getProperty(a.root, a.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 4096)
	if err != nil {
		return nil, fmt.Errorf("failed to read client list: %w", err)
	}

	ids := parseWindowList(data)
	out := make([]window.WindowInfo, 0, len(ids))
	for _, id := range ids {
		win := xproto.Window(id)
		instance, class := a.windowClass(win)
		out = append(out, window.WindowInfo{
			ID:            id,
			Class:         class,
			Instance:      instance,
			Title:         a.windowName(win),
			PID:           a.windowPID(win),
			DisplayServer: "x11",
		})
	}
	return out, nil
}

// Activate asks the window manager to focus the first window of class
func (a *Activator) Activate(class string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.connect(); err != nil {
		return false, err
	}

	windows, err := a.windows()
	if err != nil {
		return false, err
	}
	w, ok := window.FindByClass(windows, class)
	if !ok {
		return false, nil
	}

	// source indication 2: request from a pager, honoured by focus-stealing prevention
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(w.ID),
		Type:   a.atoms["_NET_ACTIVE_WINDOW"],
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{2, uint32(xproto.TimeCurrentTime), 0, 0, 0}),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	if err := xproto.SendEventChecked(a.conn, false, a.root, mask, string(ev.Bytes())).Check(); err != nil {
		return false, fmt.Errorf("failed to activate window 0x%x: %w", w.ID, err)
	}
	return true, nil
}

func (a *Activator) windowName(win xproto.Window) string {
	data, err := a.getProperty(win, a.atoms["_NET_WM_NAME"], a.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = a.getProperty(win, a.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (a *Activator) windowClass(win xproto.Window) (instance, class string) {
	data, err := a.getProperty(win, a.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil {
		return "", ""
	}
	return parseWMClass(data)
}

func (a *Activator) windowPID(win xproto.Window) int {
	data, err := a.getProperty(win, a.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(data))
}

// parseWMClass splits a WM_CLASS value ("instance\x00class\x00")
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func parseWindowList(data []byte) []uint32 {
	ids := make([]uint32, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		ids = append(ids, binary.LittleEndian.Uint32(data[i:i+4]))
	}
	return ids
}

// Close cleans up resources
func (a *Activator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	return nil
}
