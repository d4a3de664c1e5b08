package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Info is a running process read from /proc
type Info struct {
	PID     int
	Name    string
	Cmdline string
}

// Scanner reads the process table from a procfs mount
type Scanner struct {
	root string
}

// NewScanner reads /proc
func NewScanner() *Scanner {
	return &Scanner{root: "/proc"}
}

// NewScannerAt reads a procfs-shaped directory tree rooted at root
func NewScannerAt(root string) *Scanner {
	return &Scanner{root: root}
}

// IsAvailable reports whether the proc root exists
func (s *Scanner) IsAvailable() bool {
	_, err := os.Stat(s.root)
	return err == nil
}

// Processes lists every readable process
func (s *Scanner) Processes() ([]Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.root, err)
	}

	var out []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		info, err := s.read(pid)
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

func (s *Scanner) read(pid int) (*Info, error) {
	dir := filepath.Join(s.root, strconv.Itoa(pid))
	info := &Info{PID: pid}

	statData, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return nil, err
	}
	stat := string(statData)
	start := strings.Index(stat, "(")
	end := strings.LastIndex(stat, ")")
	if start != -1 && end > start {
		info.Name = stat[start+1 : end]
	}

	if cmd, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		info.Cmdline = strings.TrimSpace(strings.ReplaceAll(string(cmd), "\x00", " "))
	}
	return info, nil
}

// IsRunning reports whether a process whose name or executable basename
// equals name (ignoring case) is alive. comm is truncated to 15 bytes by
// the kernel so longer names are compared on that prefix.
func (s *Scanner) IsRunning(name string) (bool, error) {
	procs, err := s.Processes()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		if matches(p, name) {
			return true, nil
		}
	}
	return false, nil
}

func matches(p Info, name string) bool {
	if name == "" {
		return false
	}
	if strings.EqualFold(p.Name, name) {
		return true
	}
	if len(name) > 15 && len(p.Name) == 15 && strings.EqualFold(p.Name, name[:15]) {
		return true
	}
	if fields := strings.Fields(p.Cmdline); len(fields) > 0 {
		return strings.EqualFold(filepath.Base(fields[0]), name)
	}
	return false
}
