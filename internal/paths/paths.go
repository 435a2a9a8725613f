// Package paths resolves the configuration and data directory locations for
// the hub. Explicit flags beat environment overrides, which beat platform
// conventions; every override is returned as an absolute path.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the subdirectory claimed under each platform base directory.
const appDirName = "labki"

// DefaultDataDirName is the checkout-local data directory used when nothing
// else names one.
const DefaultDataDirName = ".labki-data"

// Override variables honored by the Resolve functions.
const (
	EnvConfigDir = "LABKI_CONFIG_DIR"
	EnvDataDir   = "LABKI_DATA_DIR"
)

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/labki (fallback ~/.config/labki)
// macOS:   ~/Library/Application Support/labki
// Windows: %APPDATA%/labki
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform default data directory.
//
// Linux:   $XDG_DATA_HOME/labki (fallback ~/.local/share/labki)
// macOS:   ~/Library/Application Support/labki
// Windows: %APPDATA%/labki
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// userDir returns the app directory under the platform base directory. On
// Linux that is the XDG base named by envVar, falling back to the given
// home-relative path when the variable is unset. macOS and Windows share the
// os.UserConfigDir convention for both configuration and data.
func userDir(envVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appDirName), nil
	}
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// ResolveConfigDir resolves the configuration directory. An explicit flag
// wins, then LABKI_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir resolves the data directory. An explicit flag wins, then
// the config file's data_dir value, then LABKI_DATA_DIR, then
// DefaultDataDirName under the working directory. DefaultDataDir remains
// the conventional location for installations that set data_dir in config.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
