package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imdario/mergo"
)

const appName = "thoth"

// Matchers lists the scoring strategies understood by the search service
var Matchers = []string{"skim", "levenshtein", "jaro"}

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`

	// Web server configuration
	Web WebConfig `yaml:"web"`

	// Search configuration
	Search SearchConfig `yaml:"search"`

	// Index configuration
	Index IndexConfig `yaml:"index"`

	// Runner configuration
	Runner RunnerConfig `yaml:"runner"`

	// History configuration
	History HistoryConfig `yaml:"history"`

	// Log configuration
	Log LogConfig `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database file
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `yaml:"host"` // Host to bind web server to
	Port int    `yaml:"port"` // Port for web server
}

// SearchConfig controls ranking of search results
type SearchConfig struct {
	Matcher        string `yaml:"matcher"`          // skim, levenshtein or jaro
	Limit          int    `yaml:"limit"`            // Maximum results returned
	MinQueryLength int    `yaml:"min_query_length"` // Shorter queries return nothing
	HistoryBoost   bool   `yaml:"history_boost"`    // Boost often launched items
	HistoryWeight  int    `yaml:"history_weight"`   // Score added per recorded launch
	ResolveIcons   bool   `yaml:"resolve_icons"`    // Turn icon names into file paths
	Locale         string `yaml:"locale"`           // Locale for Name[xx] keys, empty = unlocalized
}

// IndexConfig controls discovery and the in-memory catalog
type IndexConfig struct {
	ExtraDirs         []string      `yaml:"extra_dirs"`
	Watch             bool          `yaml:"watch"`
	RescanInterval    time.Duration `yaml:"rescan_interval"`
	MinRescanInterval time.Duration `yaml:"-"`
	MaxRescanInterval time.Duration `yaml:"-"`
	Debounce          time.Duration `yaml:"debounce"`
	Workers           int           `yaml:"workers"`
}

// RunnerConfig controls how items are spawned
type RunnerConfig struct {
	Terminal      string `yaml:"terminal"`       // Command prefix for Terminal=true entries
	FocusExisting bool   `yaml:"focus_existing"` // Activate a running window instead of spawning
}

// HistoryConfig controls the launch history store
type HistoryConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// LogConfig controls process logging
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`   // Empty means ~/.config/thoth/logs
	File  bool   `yaml:"file"`  // Also write to a log file
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/thoth/thoth.db
		},
		Daemon: DaemonConfig{
			PIDFile: filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d.pid", appName, os.Getuid())),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(), // Default port based on user ID
		},
		Search: SearchConfig{
			Matcher:        "skim",
			Limit:          10,
			MinQueryLength: 2,
			HistoryBoost:   false,
			HistoryWeight:  25,
			ResolveIcons:   true,
		},
		Index: IndexConfig{
			Watch:             true,
			RescanInterval:    10 * time.Minute,
			MinRescanInterval: 30 * time.Second,
			MaxRescanInterval: 24 * time.Hour,
			Debounce:          500 * time.Millisecond,
			Workers:           4,
		},
		Runner: RunnerConfig{
			Terminal:      "x-terminal-emulator -e",
			FocusExisting: false,
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Log: LogConfig{
			Level: "info",
			File:  true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !isKnownMatcher(c.Search.Matcher) {
		return fmt.Errorf("unknown matcher %q (valid: %s)", c.Search.Matcher, strings.Join(Matchers, ", "))
	}

	if c.Search.Limit < 1 || c.Search.Limit > 100 {
		return fmt.Errorf("search limit must be between 1 and 100, got %d", c.Search.Limit)
	}

	if c.Search.MinQueryLength < 0 {
		return fmt.Errorf("minimum query length cannot be negative")
	}

	if c.Search.HistoryWeight < 0 {
		return fmt.Errorf("history weight cannot be negative")
	}

	if c.Index.RescanInterval < c.Index.MinRescanInterval {
		return fmt.Errorf("rescan interval (%v) cannot be less than minimum (%v)",
			c.Index.RescanInterval, c.Index.MinRescanInterval)
	}

	if c.Index.RescanInterval > c.Index.MaxRescanInterval {
		return fmt.Errorf("rescan interval (%v) cannot be greater than maximum (%v)",
			c.Index.RescanInterval, c.Index.MaxRescanInterval)
	}

	if c.Index.Workers < 1 {
		return fmt.Errorf("index workers must be at least 1, got %d", c.Index.Workers)
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.Log.Level)
	}

	return nil
}

// Merge overlays every non-zero field of override onto c.
func (c *Config) Merge(override *Config) error {
	if override == nil {
		return nil
	}
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge configuration: %w", err)
	}
	return nil
}

// SetRescanInterval sets the rescan interval with validation
func (c *Config) SetRescanInterval(interval time.Duration) error {
	if interval < c.Index.MinRescanInterval {
		return fmt.Errorf("rescan interval cannot be less than %v", c.Index.MinRescanInterval)
	}
	if interval > c.Index.MaxRescanInterval {
		return fmt.Errorf("rescan interval cannot be greater than %v", c.Index.MaxRescanInterval)
	}
	c.Index.RescanInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// SetMatcher sets the search matcher with validation
func (c *Config) SetMatcher(name string) error {
	if !isKnownMatcher(name) {
		return fmt.Errorf("unknown matcher %q", name)
	}
	c.Search.Matcher = name
	return nil
}

// Address returns host:port of the web API
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// BaseURL returns the web API root for clients
func (c *Config) BaseURL() string {
	return "http://" + c.Address()
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d
  Search:
    Matcher: %s
    Limit: %d
    Min Query Length: %d
    History Boost: %v
  Index:
    Extra Dirs: %s
    Watch: %v
    Rescan Interval: %v
    Workers: %d
  Runner:
    Terminal: %s
    Focus Existing: %v
  History:
    Enabled: %v
    Retention: %d days
  Log:
    Level: %s`,
		c.Database.Path,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
		c.Search.Matcher,
		c.Search.Limit,
		c.Search.MinQueryLength,
		c.Search.HistoryBoost,
		strings.Join(c.Index.ExtraDirs, string(os.PathListSeparator)),
		c.Index.Watch,
		c.Index.RescanInterval,
		c.Index.Workers,
		c.Runner.Terminal,
		c.Runner.FocusExisting,
		c.History.Enabled,
		c.History.RetentionDays,
		c.Log.Level,
	)
}

func isKnownMatcher(name string) bool {
	for _, m := range Matchers {
		if m == name {
			return true
		}
	}
	return false
}
