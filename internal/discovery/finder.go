// Package discovery lists the launchable items installed on this machine.
package discovery

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/thoth/thoth/internal/models"
)

// Finder discovers launchable items for one operating system.
type Finder interface {
	Find(ctx context.Context) ([]models.Runnable, error)
	// Dirs returns the directories the finder scans.
	Dirs() []string
}

// Options configure a Finder.
type Options struct {
	// Dirs replaces the platform directories when non-empty.
	Dirs []string
	// ExtraDirs are scanned after the platform directories.
	ExtraDirs []string
	// Locale selects localized names in desktop entries.
	Locale string
	// CurrentDesktop filters OnlyShowIn/NotShowIn; defaults to $XDG_CURRENT_DESKTOP.
	CurrentDesktop string
	// Workers bounds concurrent entry parsing.
	Workers int
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Factory builds a Finder from Options.
type Factory func(Options) (Finder, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFinder makes a finder available for goos.
func RegisterFinder(goos string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[goos] = f
}

// ForOS returns the finder registered for goos.
func ForOS(goos string, opts Options) (Finder, error) {
	mu.RLock()
	f, ok := factories[goos]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
	return f(opts)
}

// New returns the finder for the running operating system.
func New(opts Options) (Finder, error) {
	return ForOS(runtime.GOOS, opts)
}

// Supported lists the registered operating systems.
func Supported() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for goos := range factories {
		out = append(out, goos)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterFinder("linux", newLinuxFinder)
	RegisterFinder("freebsd", newLinuxFinder)
	RegisterFinder("windows", newWindowsFinder)
	RegisterFinder("darwin", newDarwinFinder)
}
