package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths fixes where every scope file lives. Components receive a Paths
// value instead of consulting global state, so tests can point an entire
// Service at an isolated temp directory.
type Paths struct {
	// RootDir is the ccjk config directory, by default ~/.ccjk.
	RootDir string
	// ClaudeDir is the wrapped tool's own config directory, by default
	// ~/.claude. Its settings.json is the native-settings scope.
	ClaudeDir string
}

// DefaultPaths resolves the per-user directories.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return Paths{
		RootDir:   filepath.Join(home, ".ccjk"),
		ClaudeDir: filepath.Join(home, ".claude"),
	}, nil
}

// Preferences returns the preferences scope file path.
func (p Paths) Preferences() string {
	return filepath.Join(p.RootDir, "preferences.toml")
}

// Settings returns the native-settings scope file path.
func (p Paths) Settings() string {
	return filepath.Join(p.ClaudeDir, "settings.json")
}

// State returns the runtime-state scope file path.
func (p Paths) State() string {
	return filepath.Join(p.RootDir, "state.json")
}

// BackupDir returns the directory migration backups are written under.
func (p Paths) BackupDir() string {
	return filepath.Join(p.RootDir, "backups")
}

// ForScope maps a concrete scope to its file path.
func (p Paths) ForScope(scope Scope) (string, error) {
	switch scope {
	case ScopePreferences:
		return p.Preferences(), nil
	case ScopeSettings:
		return p.Settings(), nil
	case ScopeState:
		return p.State(), nil
	}
	return "", fmt.Errorf("scope %q has no single file path", scope)
}

// LegacyJSON is the pre-1.0 flat JSON config location.
func (p Paths) LegacyJSON() string {
	return filepath.Join(p.RootDir, "config.json")
}

// LegacyYAML is the pre-1.0 YAML config location.
func (p Paths) LegacyYAML() string {
	return filepath.Join(p.RootDir, "config.yaml")
}
