package discovery

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gammazero/workerpool"

	"github.com/thoth/thoth/internal/desktop"
	"github.com/thoth/thoth/internal/models"
)

type linuxFinder struct {
	dirs []string
	opts Options
}

func newLinuxFinder(opts Options) (Finder, error) {
	dirs, err := resolveDirs("linux", opts)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.CurrentDesktop == "" {
		getenv := opts.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		opts.CurrentDesktop = getenv("XDG_CURRENT_DESKTOP")
	}
	return &linuxFinder{dirs: dirs, opts: opts}, nil
}

func (f *linuxFinder) Dirs() []string {
	return f.dirs
}

type desktopFile struct {
	id   string
	path string
}

func (f *linuxFinder) Find(ctx context.Context) ([]models.Runnable, error) {
	files, err := f.collect(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*models.Runnable, len(files))
	parseOpts := desktop.Options{Locale: f.opts.Locale}

	wp := workerpool.New(f.opts.Workers)
	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		i, file := i, file
		wp.Submit(func() {
			entry, err := desktop.ParseFile(file.path, parseOpts)
			if err != nil {
				if !errors.Is(err, desktop.ErrInvalidEntry) {
					log.Debug("skipping unreadable desktop file", "path", file.path, "err", err)
				}
				return
			}
			if !entry.ShowIn(f.opts.CurrentDesktop) {
				return
			}
			r := models.NewRunnable(entry.Name, file.path).
				WithIcon(entry.Icon).
				WithFileName(file.id)
			results[i] = &r
		})
	}
	wp.StopWait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apps := make([]models.Runnable, 0, len(files))
	for _, r := range results {
		if r != nil {
			apps = append(apps, *r)
		}
	}
	return apps, nil
}

// collect walks every dir for *.desktop files. A desktop file ID found in an
// earlier dir shadows the same ID in later ones.
func (f *linuxFinder) collect(ctx context.Context) ([]desktopFile, error) {
	seen := make(map[string]bool)
	var files []desktopFile

	for _, dir := range f.dirs {
		log.Debug("scanning directory", "dir", dir)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == dir {
					log.Debug("skipping unreadable directory", "dir", dir, "err", err)
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}

			id := desktop.ID(dir, path)
			if seen[id] {
				return nil
			}
			seen[id] = true
			files = append(files, desktopFile{id: id, path: path})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
