// Package paths resolves where entryface keeps its configuration and its
// store. Each location follows a precedence chain of explicit flag, then
// configuration or environment, then a default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "entryface"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else selects one.
const DefaultDataDirName = ".entryface-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ENTRYFACE_CONFIG_DIR"
	EnvDataDir   = "ENTRYFACE_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdg returns $env/AppName, falling back to ~/fallback/AppName on Linux and
// to os.UserConfigDir elsewhere.
func xdg(env string, fallback ...string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/entryface (fallback ~/.config/entryface)
// macOS:   ~/Library/Application Support/entryface
// Windows: %APPDATA%/entryface
func DefaultConfigDir() (string, error) {
	return xdg("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory. ResolveDataDir keeps
// the CWD-relative default; `entryface init --user` records this one in
// config.yaml instead.
//
// Linux:   $XDG_DATA_HOME/entryface (fallback ~/.local/share/entryface)
// macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return xdg("XDG_DATA_HOME", ".local", "share")
}

// first returns the absolute form of the first non-empty candidate.
func first(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		abs, err := filepath.Abs(c)
		return abs, true, err
	}
	return "", false, nil
}

// ResolveConfigDir applies flag > ENTRYFACE_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := first(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config.yaml data_dir > ENTRYFACE_DATA_DIR >
// $(CWD)/.entryface-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := first(flag, configValue, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	return filepath.Abs(DefaultDataDirName)
}
