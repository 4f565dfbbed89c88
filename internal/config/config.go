// Package config loads and saves the guml CLI configuration from
// $XDG_CONFIG_HOME/guml/config.yaml, falling back to defaults when the
// file does not exist.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the persisted CLI configuration
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Plot      PlotConfig      `yaml:"plot"`
	Tolerance ToleranceConfig `yaml:"tolerance"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// StoreConfig holds run-database settings
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PlotConfig holds plot-output settings
type PlotConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// ToleranceConfig overrides the comparison thresholds. Zero values keep
// the library defaults.
type ToleranceConfig struct {
	AbsTol float64 `yaml:"abs_tol"`
	RelTol float64 `yaml:"rel_tol"`
	ULPTol int     `yaml:"ulp_tol"`
}

// DefaultsConfig holds per-run fallbacks
type DefaultsConfig struct {
	Dataset string `yaml:"dataset"`
	Seed    int64  `yaml:"seed"`
}

// GetConfigPath returns the default config file path
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "guml", "config.yaml"), nil
}

// DefaultStorePath returns the default run-database path under the XDG
// data directory
func DefaultStorePath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "guml", "runs.db"), nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads the configuration from path, or from the default location
// when path is empty. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	var err error
	if path == "" {
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path, or to the default location when
// path is empty, creating parent directories as needed
func (c *Config) Save(path string) error {
	var err error
	if path == "" {
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// StorePath resolves the run-database path, expanding ~ and falling back
// to the XDG default
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return ExpandPath(c.Store.Path)
	}
	return DefaultStorePath()
}

// PlotDir resolves the plot output directory, defaulting to the current
// directory
func (c *Config) PlotDir() (string, error) {
	if c.Plot.Dir != "" {
		return ExpandPath(c.Plot.Dir)
	}
	return ".", nil
}

// PlotFormat returns the plot file extension, defaulting to png
func (c *Config) PlotFormat() string {
	switch c.Plot.Format {
	case "png", "svg", "pdf":
		return c.Plot.Format
	}
	return "png"
}

// Dataset returns the default dataset name, falling back to blobs
func (c *Config) Dataset() string {
	if c.Defaults.Dataset != "" {
		return c.Defaults.Dataset
	}
	return "blobs"
}

// Seed returns the default random seed, falling back to 42
func (c *Config) Seed() int64 {
	if c.Defaults.Seed != 0 {
		return c.Defaults.Seed
	}
	return 42
}
