// Package logger configures the process-wide logger and panic recording.
package logger

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thoth/thoth/internal/config"
)

const logFileName = "thoth.log"

var (
	mu      sync.Mutex
	baseDir string
	logFile *os.File
)

// Init points the default logger at stderr and, when enabled, a log file
// under the thoth config directory.
func Init(cfg config.LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.File {
		dir := cfg.Dir
		if dir == "" {
			base, err := config.BaseDir()
			if err != nil {
				return err
			}
			baseDir = base
			dir = filepath.Join(base, "logs")
		} else {
			baseDir = filepath.Dir(dir)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir logs: %w", err)
		}

		f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		// file first: a detached daemon has no usable stderr
		out = io.MultiWriter(logFile, os.Stderr)
	}

	log.SetDefault(New(out, level))
	return nil
}

// New builds a logger in the house format.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Prefix:          "thoth",
		Level:           level,
	})
}

// Path returns the active log file path, or "" when logging to stderr only.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

// FilePath returns the log file Init opens for cfg when file logging is on.
func FilePath(cfg config.LogConfig) (string, error) {
	dir := cfg.Dir
	if dir == "" {
		base, err := config.BaseDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "logs")
	}
	return filepath.Join(dir, logFileName), nil
}

// Close flushes and closes the log file (call on exit)
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	f := logFile
	logFile = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CatchPanic recovers a panic, logs it and writes a crash file. Use with
// defer in main and in goroutines.
func CatchPanic() {
	if r := recover(); r != nil {
		stack := debug.Stack()
		log.Error("panic", "reason", r, "stack", string(stack))
		if err := WriteCrashFile(fmt.Sprintf("%v", r), stack); err != nil {
			log.Errorf("error writing crash file: %v", err)
		}
	}
}

// GoSafe runs fn in a goroutine guarded by CatchPanic
func GoSafe(fn func()) {
	go func() {
		defer CatchPanic()
		fn()
	}()
}

// WriteCrashFile stores the stack and process metadata in its own file
func WriteCrashFile(reason string, stack []byte) error {
	mu.Lock()
	dir := baseDir
	mu.Unlock()
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "thoth")
	}

	crashDir := filepath.Join(dir, "crashes")
	if err := os.MkdirAll(crashDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405"))

	f, err := os.OpenFile(filepath.Join(crashDir, name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	host, _ := os.Hostname()
	_, err = fmt.Fprintf(f, "Time: %s\nUser: %s\nHost: %s\nPID: %d\nOS: %s %s\nGo: %s\n\nReason: %s\n\nStack:\n%s\n",
		time.Now().Format(time.RFC3339), username, host, os.Getpid(), runtime.GOOS, runtime.GOARCH, runtime.Version(), reason, stack)
	return err
}
