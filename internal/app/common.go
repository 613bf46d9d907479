package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/updreset/internal/config"
	"github.com/blackwell-systems/updreset/internal/store"
)

// getConfigDir returns the config directory, using the flag value or the
// default location.
func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return dir, nil
}

// getStateDir returns the state directory, creating it if needed.
// Uses $HOME/.updreset by default.
func getStateDir() (string, error) {
	dir := stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, ".updreset")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// getLogDir returns the directory for per-run log files.
func getLogDir() (string, error) {
	dir, err := getStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// getSnapshotDir returns the directory for service-state snapshots.
func getSnapshotDir() (string, error) {
	dir, err := getStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots"), nil
}

// loadConfig reads the effective configuration.
func loadConfig() (*config.Config, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openHistory opens the run-history database, creating its schema.
func openHistory() (*store.Store, error) {
	dir, err := getStateDir()
	if err != nil {
		return nil, err
	}
	st, err := store.New(filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
