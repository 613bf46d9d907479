// Package config provides configuration file parsing for updreset.
//
// Built-in defaults target the standard update subsystem services and cache
// directories; an optional YAML file overrides individual fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the remediation targets for one run.
type Config struct {
	// Services are suspended and restored, in this order.
	Services []string `yaml:"services"`
	// ArchiveDirs are the live cache directories rotated into backup chains.
	ArchiveDirs []string `yaml:"archive_dirs"`
	// MaxGenerations bounds each backup chain. Must be >= 1.
	MaxGenerations int `yaml:"max_generations"`
	// MarkerRoot is the tree searched for stale marker files.
	MarkerRoot string `yaml:"marker_root"`
	// MarkerSuffix selects which filenames count as markers.
	MarkerSuffix string `yaml:"marker_suffix"`
	// SettleSeconds is the pause before each service's restore.
	SettleSeconds int `yaml:"settle_seconds"`
}

// Default returns the built-in configuration: the update subsystem's service
// set, its two stateful cache directories, a five-generation backup chain,
// and the transfer service's queue marker files.
func Default() *Config {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = `C:\Windows`
	}
	programData := os.Getenv("ALLUSERSPROFILE")
	if programData == "" {
		programData = `C:\ProgramData`
	}

	return &Config{
		Services: []string{"wuauserv", "bits", "cryptsvc", "msiserver"},
		ArchiveDirs: []string{
			filepath.Join(systemRoot, "SoftwareDistribution"),
			filepath.Join(systemRoot, "System32", "catroot2"),
		},
		MaxGenerations: 5,
		MarkerRoot:     filepath.Join(programData, "Microsoft", "Network", "Downloader"),
		MarkerSuffix:   ".dat",
		SettleSeconds:  2,
	}
}

// Dir returns the updreset config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/updreset if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "updreset"), nil
}

// Load reads {dir}/config.yaml over the defaults. A missing file returns the
// defaults without error; a malformed or invalid file is an error — a
// remediation tool must not run against a half-understood configuration.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, "config.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields a run depends on.
func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("services list is empty")
	}
	if len(c.ArchiveDirs) == 0 {
		return fmt.Errorf("archive_dirs list is empty")
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("max_generations must be >= 1, got %d", c.MaxGenerations)
	}
	if c.MarkerSuffix == "" {
		return fmt.Errorf("marker_suffix is empty")
	}
	if c.SettleSeconds < 0 {
		return fmt.Errorf("settle_seconds must not be negative, got %d", c.SettleSeconds)
	}
	return nil
}

// Settle returns the settle interval as a duration.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}
