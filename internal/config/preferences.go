package config

import (
	"fmt"
	"time"

	"github.com/ccjk/ccjk/internal/logging"
)

// PreferencesManager owns the preferences scope: the tool-agnostic user
// settings document stored as TOML under the ccjk config directory.
type PreferencesManager struct {
	*Manager
}

// NewPreferencesManager builds the preferences scope manager.
func NewPreferencesManager(paths Paths, log *logging.Logger) *PreferencesManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &PreferencesManager{Manager: &Manager{
		scope:  ScopePreferences,
		path:   paths.Preferences(),
		codec:  tomlCodec{},
		schema: PreferencesSchema(),
		defaults: func(now time.Time) Document {
			return DefaultPreferences("", InstallGlobal, now)
		},
		extra: validatePreferencesExtra,
		log:   log.WithScope(string(ScopePreferences)),
		now:   time.Now,
		stamp: true,
	}}
}

// validatePreferencesExtra enforces the cross-field rule the schema cannot:
// the selected tool must be enabled in the tools section.
func validatePreferencesExtra(doc Document) []string {
	tool := doc.StringAt("general", "currentTool")
	if tool == "" {
		return nil
	}
	tools, ok := doc.Section("tools")
	if !ok {
		return nil
	}
	entry, ok := tools[toolKey(tool)].(map[string]any)
	if !ok {
		return nil
	}
	if enabled, ok := entry["enabled"].(bool); ok && !enabled {
		return []string{fmt.Sprintf("general.currentTool: selected tool %q is disabled in tools", tool)}
	}
	return nil
}

// toolKey maps a tool identifier to its section key in the tools object.
func toolKey(tool string) string {
	switch tool {
	case "claude-code":
		return "claudeCode"
	case "codex":
		return "codex"
	}
	return tool
}

// PreferredLang returns the user's preferred interface language.
func (m *PreferencesManager) PreferredLang() (string, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return "", err
	}
	return doc.StringAt("general", "preferredLang"), nil
}

// CurrentTool returns the wrapped tool currently selected by the user.
func (m *PreferencesManager) CurrentTool() (string, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return "", err
	}
	return doc.StringAt("general", "currentTool"), nil
}

// SetCurrentTool switches the selected tool and enables its section.
func (m *PreferencesManager) SetCurrentTool(tool string) error {
	return m.Update(Document{
		"general": map[string]any{"currentTool": tool},
		"tools": map[string]any{
			toolKey(tool): map[string]any{"enabled": true},
		},
	})
}
