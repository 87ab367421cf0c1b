// Package paths resolves where atlas keeps its config.yaml and its database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names created in the working directory when nothing overrides
// them.
const (
	DefaultConfigDirName = ".atlas"
	DefaultDataDirName   = ".atlas-db"
)

// Environment overrides.
const (
	EnvConfigDir = "ATLAS_CONFIG_DIR"
	EnvDataDir   = "ATLAS_DATA_DIR"
)

const appName = "atlas"

// platformDir can be replaced in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/atlas (fallback ~/.config/atlas)
// macOS:   ~/Library/Application Support/atlas
// Windows: %APPDATA%/atlas
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/atlas (fallback ~/.local/share/atlas)
// macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

func userDir(xdgVar string, homeFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, homeFallback...), appName)...), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// ATLAS_CONFIG_DIR, then .atlas in the working directory.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDirName, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks the data directory: flag, then the data_dir value
// from config.yaml, then ATLAS_DATA_DIR, then .atlas-db in the working
// directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDirName, flag, configValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate as an absolute path, or
// cwdName under the working directory.
func resolve(cwdName string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, cwdName), nil
}
