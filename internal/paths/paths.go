// Package paths resolves where gridline keeps its config file and its data
// directory. Each location follows flag > environment > default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "gridline"

// Working-directory default for the data directory.
const DefaultDataDirName = ".gridline-db"

// ConfigFileName is the file read from the config directory.
const ConfigFileName = "config.yaml"

// Environment overrides.
const (
	EnvConfigDir = "GRIDLINE_CONFIG_DIR"
	EnvDataDir   = "GRIDLINE_DATA_DIR"
)

// Overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// userDir returns the per-user directory for gridline. On Linux it honors
// xdgEnv and falls back to home/fallback; elsewhere it uses
// os.UserConfigDir.
func userDir(xdgEnv string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform config directory:
// $XDG_CONFIG_HOME/gridline or ~/.config/gridline on Linux, the
// os.UserConfigDir location elsewhere.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultUserDataDir returns the platform data directory:
// $XDG_DATA_HOME/gridline or ~/.local/share/gridline on Linux.
func DefaultUserDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns flag, else $GRIDLINE_CONFIG_DIR, else
// DefaultConfigDir. Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns flag, else the config file value, else
// $GRIDLINE_DATA_DIR, else .gridline-db under the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config file path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
