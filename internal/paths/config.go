// Package paths resolves where nativepage keeps its configuration.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDirName is the per-project configuration directory.
	ConfigDirName = ".nativepage"

	// ConfigFileName is the configuration file inside a config directory.
	ConfigFileName = "config.yaml"

	appName = "nativepage"
)

// LocalConfig returns the project config path, relative to the working directory.
func LocalConfig() string {
	return filepath.Join(ConfigDirName, ConfigFileName)
}

// UserConfig returns ~/.config/nativepage/config.yaml, or "" when the home
// directory cannot be determined.
func UserConfig() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", appName, ConfigFileName)
}

// ResolveConfig picks the config file to load.
//
// Resolution order:
//   - explicit, when non-empty. A directory resolves to the config file inside it.
//   - ./.nativepage/config.yaml
//   - ~/.config/nativepage/config.yaml
//
// Returns "" when no explicit path is given and neither default exists.
// An explicit path is returned even if it does not exist so the caller can
// report it.
func ResolveConfig(explicit string) string {
	if explicit != "" {
		if info, err := os.Stat(explicit); err == nil && info.IsDir() {
			return filepath.Join(explicit, ConfigFileName)
		}
		return explicit
	}

	for _, candidate := range []string{LocalConfig(), UserConfig()} {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
