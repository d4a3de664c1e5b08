package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/models"
)

// ErrorStore persists scan failures.
type ErrorStore interface {
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// Service keeps an Index fresh: one scan on start, then rescans on
// directory changes and on a fixed interval.
type Service struct {
	config   config.IndexConfig
	index    *Index
	store    ErrorStore
	stopChan chan struct{}
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	running bool
}

// NewService creates the refresher. store may be nil.
func NewService(cfg *config.Config, idx *Index, store ErrorStore) *Service {
	return &Service{
		config:   cfg.Index,
		index:    idx,
		store:    store,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("index service is already running")
	}
	s.running = true
	stop := s.stopChan
	s.mu.Unlock()
	defer s.setRunning(false)

	log.Printf("Starting index with %v rescan interval", s.config.RescanInterval)

	s.refresh(ctx, "initial scan")

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	if s.config.Watch {
		watcher, err := s.watch()
		if err != nil {
			log.Warn("Directory watching disabled", "err", err)
		} else {
			defer watcher.Close()
			events = watcher.Events
			watchErrors = watcher.Errors
		}
	}

	var tick <-chan time.Time
	if s.config.RescanInterval > 0 {
		ticker := time.NewTicker(s.config.RescanInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			log.Print("Index stopped by context")
			return ctx.Err()

		case <-stop:
			log.Print("Index stopped")
			return nil

		case <-tick:
			s.refresh(ctx, "periodic rescan")

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !relevant(ev) {
				continue
			}
			log.Debug("Directory changed", "path", ev.Name, "op", ev.Op.String())
			if ev.Has(fsnotify.Create) {
				s.addTree(ev.Name)
			}
			debounce.Reset(s.config.Debounce)
			pending = debounce.C

		case <-pending:
			pending = nil
			s.refresh(ctx, "directory change")

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			s.storeError(fmt.Errorf("watcher: %w", err))
		}
	}
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopChan)
		s.stopChan = make(chan struct{})
	}
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Service) refresh(ctx context.Context, reason string) {
	n, err := s.index.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.storeError(err)
		return
	}
	log.Printf("Indexed %d applications (%s)", n, reason)
}

func (s *Service) watch() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = w
	for _, dir := range s.index.Dirs() {
		s.addTree(dir)
	}
	return w, nil
}

// addTree watches dir and every directory below it. Missing dirs are skipped.
func (s *Service) addTree(dir string) {
	if s.watcher == nil {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			log.Debug("Could not watch directory", "dir", path, "err", err)
		}
		return nil
	})
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Write)
}

func (s *Service) storeError(err error) {
	if s.store == nil {
		log.Printf("Index error: %v", err)
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: time.Now(),
		Source:    "index",
		ErrorMsg:  err.Error(),
		CreatedAt: time.Now(),
	}

	if dbErr := s.store.CreateErrorLog(errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}
