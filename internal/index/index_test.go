package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/models"
)

type fakeFinder struct {
	dirs  []string
	calls atomic.Int32
	err   error
}

func (f *fakeFinder) Find(ctx context.Context) ([]models.Runnable, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	n := int(f.calls.Load())
	apps := make([]models.Runnable, n)
	for i := range apps {
		apps[i] = models.NewRunnable("app", "/app")
	}
	return apps, nil
}

func (f *fakeFinder) Dirs() []string { return f.dirs }

type fakeStore struct {
	mu   sync.Mutex
	logs []*models.ErrorLog
}

func (s *fakeStore) CreateErrorLog(l *models.ErrorLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func TestIndexRefresh(t *testing.T) {
	f := &fakeFinder{dirs: []string{"/a"}}
	idx := New(f)
	assert.False(t, idx.Ready())
	assert.Empty(t, idx.Entries())

	n, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, idx.Ready())

	entries := idx.Entries()
	entries[0].Name = "mutated"
	assert.Equal(t, "app", idx.Entries()[0].Name, "Entries must return a copy")

	stats := idx.Stats()
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 1, stats.Refreshes)
	assert.Equal(t, []string{"/a"}, stats.Dirs)
	assert.False(t, stats.LastRefresh.IsZero())
}

func TestIndexRefreshErrorKeepsCatalog(t *testing.T) {
	f := &fakeFinder{}
	idx := New(f)
	_, err := idx.Refresh(context.Background())
	require.NoError(t, err)

	f.err = errors.New("boom")
	_, err = idx.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, idx.Entries(), 1)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Index.Watch = false
	cfg.Index.RescanInterval = 0
	cfg.Index.Debounce = 10 * time.Millisecond
	return cfg
}

func TestServicePeriodicRescan(t *testing.T) {
	cfg := testConfig()
	cfg.Index.RescanInterval = 20 * time.Millisecond

	f := &fakeFinder{}
	svc := NewService(cfg, New(f), nil)

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, svc.IsRunning())

	svc.Stop()
	require.NoError(t, <-done)
	assert.False(t, svc.IsRunning())
}

func TestServiceAlreadyRunning(t *testing.T) {
	svc := NewService(testConfig(), New(&fakeFinder{}), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	assert.Eventually(t, svc.IsRunning, time.Second, 5*time.Millisecond)

	assert.Error(t, svc.Start(ctx))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestServiceWatchesDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Index.Watch = true

	f := &fakeFinder{dirs: []string{dir, filepath.Join(dir, "missing")}}
	idx := New(f)
	svc := NewService(cfg, idx, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Start(ctx) }()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.desktop"), []byte("x"), 0o644))
	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestServiceStoresScanErrors(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(testConfig(), New(&fakeFinder{err: errors.New("permission denied")}), store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = svc.Start(ctx) }()
	defer cancel()

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "index", store.logs[0].Source)
	assert.Contains(t, store.logs[0].ErrorMsg, "permission denied")
}
