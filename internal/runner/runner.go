// Package runner starts launcher items.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/skratchdot/open-golang/open"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/desktop"
	"github.com/thoth/thoth/internal/discovery"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/pkg/window"
)

// ErrEmptyPath is returned when Run is called without a path.
var ErrEmptyPath = errors.New("empty path")

// Recorder persists launch attempts.
type Recorder interface {
	CreateLaunch(event *models.LaunchEvent) error
}

// Result describes a started item.
type Result struct {
	RunID  string `json:"run_id"`
	Name   string `json:"name"`
	Method string `json:"method"`
	PID    int    `json:"pid,omitempty"`
}

type Runner struct {
	config    config.RunnerConfig
	locale    string
	recorder  Recorder
	activator window.Activator

	goos  string
	spawn func(argv []string, dir string) (int, error)
	open  func(target string) error
}

// Option configures optional collaborators.
type Option func(*Runner)

// WithRecorder records every launch attempt.
func WithRecorder(r Recorder) Option {
	return func(rn *Runner) { rn.recorder = r }
}

// WithActivator lets Run focus an existing window instead of spawning.
func WithActivator(a window.Activator) Option {
	return func(rn *Runner) { rn.activator = a }
}

func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		config: cfg.Runner,
		locale: cfg.Search.Locale,
		goos:   runtime.GOOS,
		spawn:  spawnDetached,
		open:   open.Start,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the item at path. Failures are returned as errors and still
// recorded.
func (r *Runner) Run(ctx context.Context, path string) (*Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	err := r.launch(path, res)
	if res.Name == "" {
		res.Name = displayName(path)
	}

	r.record(path, res, err)

	if err != nil {
		log.Error("Launch failed", "path", path, "method", res.Method, "err", err)
		return res, err
	}
	log.Info("Launched", "name", res.Name, "method", res.Method, "pid", res.PID)
	return res, nil
}

func (r *Runner) launch(path string, res *Result) error {
	if r.goos == "windows" {
		return r.launchShell(path, res)
	}

	if strings.HasSuffix(path, ".desktop") {
		return r.launchDesktop(path, res)
	}

	if r.goos == "darwin" && strings.HasSuffix(path, ".app") {
		res.Method = models.MethodOpen
		return r.open(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Method = models.MethodSpawn
		return fmt.Errorf("cannot run %s: %w", path, err)
	}
	if info.Mode().IsRegular() && info.Mode()&0o111 != 0 {
		res.Method = models.MethodSpawn
		pid, err := r.spawn([]string{path}, filepath.Dir(path))
		res.PID = pid
		return err
	}

	res.Method = models.MethodOpen
	return r.open(path)
}

// launchShell hands the path to cmd's start builtin; the empty string is the
// window title argument start expects before a quoted path.
func (r *Runner) launchShell(path string, res *Result) error {
	res.Method = models.MethodShell
	pid, err := r.spawn([]string{"cmd.exe", "/C", "start", "", path}, "")
	res.PID = pid
	return err
}

func (r *Runner) launchDesktop(path string, res *Result) error {
	res.Method = models.MethodSpawn

	entry, err := desktop.ParseFile(path, desktop.Options{Locale: r.locale})
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	res.Name = entry.Name

	if entry.Type == desktop.TypeLink {
		res.Method = models.MethodOpen
		return r.open(entry.URL)
	}

	if r.focusExisting(entry) {
		res.Method = models.MethodFocus
		return nil
	}

	argv, err := entry.Command()
	if err != nil {
		return fmt.Errorf("invalid Exec in %s: %w", path, err)
	}

	if entry.Terminal {
		term, err := shellquote.Split(r.config.Terminal)
		if err != nil {
			return fmt.Errorf("invalid terminal command %q: %w", r.config.Terminal, err)
		}
		if len(term) == 0 {
			return fmt.Errorf("%s needs a terminal but none is configured", entry.Name)
		}
		argv = append(term, argv...)
	}

	pid, err := r.spawn(argv, entry.WorkDir)
	res.PID = pid
	return err
}

func (r *Runner) focusExisting(entry *desktop.Entry) bool {
	if !r.config.FocusExisting || r.activator == nil {
		return false
	}
	class := entry.StartupWMClass
	if class == "" {
		if bin := entry.Binary(); bin != "" {
			class = filepath.Base(bin)
		}
	}
	if class == "" {
		return false
	}

	ok, err := r.activator.Activate(class)
	if err != nil {
		log.Debug("Could not focus existing window", "class", class, "err", err)
		return false
	}
	return ok
}

func (r *Runner) record(path string, res *Result, runErr error) {
	if r.recorder == nil {
		return
	}
	event := &models.LaunchEvent{
		RunID:     res.RunID,
		Timestamp: time.Now(),
		Name:      res.Name,
		Path:      path,
		Method:    res.Method,
		Success:   runErr == nil,
	}
	if runErr != nil {
		event.ErrorMsg = runErr.Error()
	}
	if err := r.recorder.CreateLaunch(event); err != nil {
		log.Printf("Failed to record launch: %v", err)
	}
}

func displayName(path string) string {
	if strings.ContainsAny(path, `\/`) {
		return discovery.ShortcutName(path)
	}
	return path
}

// spawnDetached starts argv in its own session and reaps it in the background.
func spawnDetached(argv []string, dir string) (int, error) {
	if len(argv) == 0 {
		return 0, desktop.ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
	}()
	return pid, nil
}
