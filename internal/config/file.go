package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BaseDir returns the per-user directory holding the database, logs and
// config file. It is created if missing.
func BaseDir() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil || cfgDir == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to get config or home directory: %v, %v", err, herr)
		}
		cfgDir = filepath.Join(home, ".config")
	}

	dir := filepath.Join(cfgDir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultConfigPath returns ~/.config/thoth/config.yaml
func DefaultConfigPath() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path means the default location; a missing file at
// the default location is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := LoadFile(cfg, path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

// LoadFile unmarshals the YAML file at path over cfg. Keys missing from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Marshal renders cfg as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
