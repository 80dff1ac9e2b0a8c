package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/instantshare/instantshare/internal/constants"
)

// ConfigFileName is the INI file inside the config directory.
const ConfigFileName = "config.ini"

// ConfigDirectory returns the per-user configuration directory.
//
// Locations:
//   - Linux: $XDG_CONFIG_HOME/instantshare (~/.config/instantshare)
//   - macOS: ~/Library/Application Support/instantshare
//   - Windows: %LOCALAPPDATA%\instantshare
func ConfigDirectory() string {
	return filepath.Join(xdg.ConfigHome, constants.AppName)
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), ConfigFileName)
}

// StateDirectory holds data the user did not author: the theme preference
// and logs.
func StateDirectory() string {
	return filepath.Join(xdg.StateHome, constants.AppName)
}

// LogDirectory returns the directory of the rotating log file.
func LogDirectory() string {
	return filepath.Join(StateDirectory(), "logs")
}

// DefaultDownloadDirectory returns the user's download directory, falling
// back to the working directory.
func DefaultDownloadDirectory() string {
	if dir := xdg.UserDirs.Download; dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
