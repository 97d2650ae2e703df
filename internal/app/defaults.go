package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths and settings.
// Keys: config_path, base_dir, log_dir, local_path, store.
//
// Lookup order:
//   - config_path: BTMAD_CONFIG_PATH, then $XDG_CONFIG_HOME/btmad.toml, then ~/.config/btmad.toml
//   - base_dir: BTMAD_HOME, then $XDG_DATA_HOME/btmad, then ~/.local/share/btmad
//   - store: BTMAD_STORE, then "local"
func GetDefaults() (map[string]string, error) {
	configPath, err := lookupPath("BTMAD_CONFIG_PATH", "XDG_CONFIG_HOME", "btmad.toml", ".config")
	if err != nil {
		return nil, err
	}

	baseDir, err := lookupPath("BTMAD_HOME", "XDG_DATA_HOME", "btmad", ".local", "share")
	if err != nil {
		return nil, err
	}

	store := os.Getenv("BTMAD_STORE")
	if store == "" {
		store = "local"
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"local_path":  filepath.Join(baseDir, "local.db"),
		"store":       store,
	}, nil
}

// lookupPath returns $envVar if set, else name under $xdgVar, else name under
// the home directory joined with homeRel.
func lookupPath(envVar, xdgVar, name string, homeRel ...string) (string, error) {
	if path := os.Getenv(envVar); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append(append([]string{homeDir}, homeRel...), name)...), nil
}
