package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/thoth/thoth/internal/models"
)

type darwinFinder struct {
	dirs []string
}

func newDarwinFinder(opts Options) (Finder, error) {
	dirs, err := resolveDirs("darwin", opts)
	if err != nil {
		return nil, err
	}
	return &darwinFinder{dirs: dirs}, nil
}

func (f *darwinFinder) Dirs() []string {
	return f.dirs
}

// Find lists *.app bundles; bundles are not descended into.
func (f *darwinFinder) Find(ctx context.Context) ([]models.Runnable, error) {
	var apps []models.Runnable
	for _, dir := range f.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil || !d.IsDir() {
				return nil
			}
			if strings.HasSuffix(d.Name(), ".app") {
				name := strings.TrimSuffix(d.Name(), ".app")
				apps = append(apps, models.NewRunnable(name, path).WithFileName(d.Name()))
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return apps, nil
}
