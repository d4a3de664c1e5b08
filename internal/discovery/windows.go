package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/thoth/thoth/internal/icons"
	"github.com/thoth/thoth/internal/models"
)

var windowsExtensions = []string{".lnk", ".exe"}

type windowsFinder struct {
	dirs []string
}

func newWindowsFinder(opts Options) (Finder, error) {
	dirs, err := resolveDirs("windows", opts)
	if err != nil {
		return nil, err
	}
	return &windowsFinder{dirs: dirs}, nil
}

func (f *windowsFinder) Dirs() []string {
	return f.dirs
}

func (f *windowsFinder) Find(ctx context.Context) ([]models.Runnable, error) {
	var apps []models.Runnable

	for _, dir := range f.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil || d.IsDir() || !hasWindowsExtension(path) {
				return nil
			}

			r := models.NewRunnable(ShortcutName(path), path).WithFileName(filepath.Base(path))
			if strings.EqualFold(filepath.Ext(path), ".lnk") {
				if info, err := ResolveShortcut(path); err == nil {
					r = r.WithIcon(shortcutIcon(info))
				} else {
					log.Debug("could not resolve shortcut", "path", path, "err", err)
				}
			} else {
				r = r.WithIcon(path)
			}
			apps = append(apps, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return apps, nil
}

// ShortcutName is the display name of a Start-Menu or Desktop item: its base
// name with a .lnk extension removed.
func ShortcutName(path string) string {
	base := path
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		base = path[i+1:]
	}
	if strings.EqualFold(filepath.Ext(base), ".lnk") {
		base = base[:len(base)-len(".lnk")]
	}
	return base
}

func hasWindowsExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range windowsExtensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Shortcut is what a .lnk file points at.
type Shortcut struct {
	Target       string
	Arguments    string
	WorkingDir   string
	IconLocation string
}

func shortcutIcon(s *Shortcut) string {
	if path, _ := icons.SplitIconLocation(s.IconLocation); path != "" {
		return path
	}
	return s.Target
}
