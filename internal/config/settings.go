package config

import (
	"time"

	"github.com/ccjk/ccjk/internal/logging"
	"github.com/ccjk/ccjk/internal/merge"
)

// SettingsManager owns the native-settings scope: the wrapped tool's own
// settings.json. ccjk reads and rewrites it but the document belongs to
// the external tool, so validation is deliberately permissive about keys
// this build does not know.
type SettingsManager struct {
	*Manager
}

// NewSettingsManager builds the native-settings scope manager.
func NewSettingsManager(paths Paths, log *logging.Logger) *SettingsManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &SettingsManager{Manager: &Manager{
		scope:  ScopeSettings,
		path:   paths.Settings(),
		codec:  jsonCodec{},
		schema: SettingsSchema(),
		defaults: func(time.Time) Document {
			return DefaultSettings()
		},
		log: log.WithScope(string(ScopeSettings)),
		now: time.Now,
	}}
}

// ApplyTemplate merges a settings template into the current document with
// the native-settings semantics: user env values win and permission lists
// are unioned. The merged document is persisted and the resolved conflicts
// are returned for the caller to report.
func (m *SettingsManager) ApplyTemplate(template Document) (merge.Result, error) {
	current, err := m.GetOrDefault()
	if err != nil {
		return merge.Result{}, err
	}
	res := merge.MergeNativeSettings(map[string]any(current), map[string]any(template))
	if err := m.Write(Document(res.Result)); err != nil {
		return res, err
	}
	return res, nil
}

// Model returns the configured model override, or "".
func (m *SettingsManager) Model() (string, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return "", err
	}
	s, _ := doc["model"].(string)
	return s, nil
}

// Env returns the env map, never nil.
func (m *SettingsManager) Env() (map[string]any, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return nil, err
	}
	env, ok := doc.Section("env")
	if !ok {
		return map[string]any{}, nil
	}
	return env, nil
}
