package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

// ErrMissingEnv is returned when a variable needed to locate app dirs is unset.
var ErrMissingEnv = errors.New("environment variable not set")

// AppDirs returns the directories scanned for goos, in priority order.
// A nil getenv reads the process environment. The XDG dirs used on linux and
// the BSDs always come from the process environment.
func AppDirs(goos string, getenv func(string) string) ([]string, error) {
	switch goos {
	case "windows":
		if getenv == nil {
			getenv = os.Getenv
		}
		return windowsDirs(getenv)
	case "darwin":
		if getenv == nil {
			getenv = os.Getenv
		}
		home := getenv("HOME")
		dirs := []string{"/Applications", "/System/Applications"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Applications"))
		}
		return dirs, nil
	default:
		return xdgApplicationDirs(), nil
	}
}

func windowsDirs(getenv func(string) string) ([]string, error) {
	values := make(map[string]string, 3)
	for _, name := range []string{"USERPROFILE", "APPDATA", "ProgramData"} {
		v := getenv(name)
		if v == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingEnv, name)
		}
		values[name] = v
	}

	// joined with backslashes so the result is right regardless of host OS
	return []string{
		values["USERPROFILE"] + `\Desktop`,
		values["APPDATA"] + `\Microsoft\Windows\Start Menu\Programs`,
		values["ProgramData"] + `\Microsoft\Windows\Start Menu\Programs`,
	}, nil
}

// xdgMu serializes xdg.Reload, which rewrites package globals.
var xdgMu sync.Mutex

// xdgApplicationDirs returns the applications dir under $XDG_DATA_HOME and
// each of $XDG_DATA_DIRS, read fresh from the process environment.
func xdgApplicationDirs() []string {
	xdgMu.Lock()
	xdg.Reload()
	roots := append([]string{xdg.DataHome}, xdg.DataDirs...)
	xdgMu.Unlock()

	var dirs []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		dirs = append(dirs, filepath.Join(root, "applications"))
	}
	return dedupe(dirs)
}

// DataDirs returns $XDG_DATA_HOME followed by $XDG_DATA_DIRS.
func DataDirs() []string {
	var roots []string
	for _, dir := range xdgApplicationDirs() {
		roots = append(roots, filepath.Dir(dir))
	}
	return roots
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		clean := filepath.Clean(d)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

func resolveDirs(goos string, opts Options) ([]string, error) {
	dirs := opts.Dirs
	if len(dirs) == 0 {
		var err error
		dirs, err = AppDirs(goos, opts.Getenv)
		if err != nil {
			return nil, err
		}
	}
	return append(append([]string{}, dirs...), opts.ExtraDirs...), nil
}
