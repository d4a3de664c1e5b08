// Package index keeps the discovered catalog in memory.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thoth/thoth/internal/discovery"
	"github.com/thoth/thoth/internal/models"
)

// Stats describes the current catalog.
type Stats struct {
	Count       int       `json:"count"`
	Refreshes   int       `json:"refreshes"`
	LastRefresh time.Time `json:"last_refresh"`
	Took        string    `json:"took"`
	Dirs        []string  `json:"dirs"`
}

// Index holds the last result of a Finder.
type Index struct {
	finder discovery.Finder

	mu        sync.RWMutex
	entries   []models.Runnable
	refreshes int
	last      time.Time
	took      time.Duration
}

func New(finder discovery.Finder) *Index {
	return &Index{finder: finder}
}

// Refresh rescans and replaces the catalog. On error the previous catalog is kept.
func (i *Index) Refresh(ctx context.Context) (int, error) {
	start := time.Now()
	entries, err := i.finder.Find(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan applications: %w", err)
	}

	i.mu.Lock()
	i.entries = entries
	i.refreshes++
	i.last = time.Now()
	i.took = time.Since(start)
	i.mu.Unlock()

	return len(entries), nil
}

// Entries returns a copy of the catalog.
func (i *Index) Entries() []models.Runnable {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]models.Runnable, len(i.entries))
	copy(out, i.entries)
	return out
}

func (i *Index) Ready() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.refreshes > 0
}

func (i *Index) Dirs() []string {
	return i.finder.Dirs()
}

func (i *Index) Stats() Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return Stats{
		Count:       len(i.entries),
		Refreshes:   i.refreshes,
		LastRefresh: i.last,
		Took:        i.took.Round(time.Millisecond).String(),
		Dirs:        i.finder.Dirs(),
	}
}
