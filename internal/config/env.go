package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("THOTH_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Daemon configuration
	if pidFile := os.Getenv("THOTH_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Web configuration
	if webHost := os.Getenv("THOTH_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("THOTH_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	// Search configuration
	if matcher := os.Getenv("THOTH_MATCHER"); matcher != "" && isKnownMatcher(matcher) {
		cfg.Search.Matcher = matcher
	}

	if limit := os.Getenv("THOTH_SEARCH_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.Search.Limit = n
		}
	}

	if boost := os.Getenv("THOTH_HISTORY_BOOST"); boost != "" {
		if val, err := strconv.ParseBool(boost); err == nil {
			cfg.Search.HistoryBoost = val
		}
	}

	if locale := os.Getenv("THOTH_LOCALE"); locale != "" {
		cfg.Search.Locale = locale
	}

	// Index configuration
	if dirs := os.Getenv("THOTH_EXTRA_DIRS"); dirs != "" {
		for _, dir := range filepath.SplitList(dirs) {
			if dir = strings.TrimSpace(dir); dir != "" {
				cfg.Index.ExtraDirs = append(cfg.Index.ExtraDirs, dir)
			}
		}
	}

	if rescan := os.Getenv("THOTH_RESCAN_INTERVAL"); rescan != "" {
		if seconds, err := strconv.Atoi(rescan); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Index.MinRescanInterval && interval <= cfg.Index.MaxRescanInterval {
				cfg.Index.RescanInterval = interval
			}
		}
	}

	if watch := os.Getenv("THOTH_WATCH"); watch != "" {
		if val, err := strconv.ParseBool(watch); err == nil {
			cfg.Index.Watch = val
		}
	}

	// Runner configuration
	if terminal := os.Getenv("THOTH_TERMINAL"); terminal != "" {
		cfg.Runner.Terminal = terminal
	}

	if focus := os.Getenv("THOTH_FOCUS_EXISTING"); focus != "" {
		if val, err := strconv.ParseBool(focus); err == nil {
			cfg.Runner.FocusExisting = val
		}
	}

	// History configuration
	if history := os.Getenv("THOTH_HISTORY"); history != "" {
		if val, err := strconv.ParseBool(history); err == nil {
			cfg.History.Enabled = val
		}
	}

	// Log configuration
	if level := os.Getenv("THOTH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
}

// New creates a new Config with default values, the config file if present,
// and environment overrides
func New() *Config {
	cfg, err := Load(os.Getenv("THOTH_CONFIG"))
	if err != nil {
		cfg = Default()
		LoadFromEnv(cfg)
	}
	return cfg
}
