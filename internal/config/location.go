package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "JSRUN_CONFIG"

// GetConfigPath returns $JSRUN_CONFIG if set, otherwise ~/.jsrun/config.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".jsrun", "config"), nil
}

// DataDir returns the directory holding the configuration file, where
// jsrun also keeps its history and logs by default.
func DataDir() (string, error) {
	p, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
