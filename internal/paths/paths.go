// Package paths resolves where dndb keeps its configuration and its SQLite
// database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDirName is the working-directory-relative config directory.
const DefaultConfigDirName = ".dndb"

// ConfigFileName is the config file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment variables that override the directory defaults.
const (
	EnvConfigDir = "DNDB_CONFIG_DIR"
	EnvDataDir   = "DNDB_DATA_DIR"
)

// platformDir holds lookups that tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/dndb (fallback ~/.local/share/dndb)
// macOS:   ~/Library/Application Support/dndb
// Windows: %APPDATA%/dndb
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "dndb"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "dndb"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dndb"), nil
}

// ResolveConfigDir returns the config directory: flag, then DNDB_CONFIG_DIR,
// then .dndb in the working directory. The result is absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveDataDir returns the SQLite data directory: flag, then the
// config.yaml value, then DNDB_DATA_DIR, then DefaultDataDir. The result is
// absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return DefaultDataDir()
}
