package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment
// variables first. The base directory holds everything sio writes for
// itself: the metadata cache, run logs and sio.log.
// Environment variables:
//   - SIO_CONFIG_PATH: config file location (default: ~/.config/sio.toml)
//   - SIO_HOME: base directory for sio data (default: ~/.local/share/sio)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SIO_CONFIG_PATH env var
// first, then falling back to the default ~/.config/sio.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SIO_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sio.toml"), nil
}

// getBaseDir returns the base directory for sio data, checking SIO_HOME env
// var first, then falling back to the XDG default ~/.local/share/sio.
func getBaseDir() (string, error) {
	if path := os.Getenv("SIO_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "sio"), nil
}
