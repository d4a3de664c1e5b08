//go:build !windows

package discovery

import "errors"

// ErrShortcutUnsupported is returned when .lnk files cannot be resolved on this OS.
var ErrShortcutUnsupported = errors.New("shortcut resolution requires windows")

// ResolveShortcut is only implemented on windows.
func ResolveShortcut(path string) (*Shortcut, error) {
	return nil, ErrShortcutUnsupported
}
