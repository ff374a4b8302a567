package config

import "time"

// InstallMode selects how the wrapped tool was installed, which drives a
// couple of default paths in the preferences document.
type InstallMode string

const (
	InstallGlobal InstallMode = "global"
	InstallLocal  InstallMode = "local"
)

// Defaults are pure functions of minimal input producing fully-populated
// documents. No partial defaults are ever persisted: anything a migration
// or a first write cannot take from its input comes from here.

// DefaultPreferences returns a complete preferences document for the given
// language and install mode.
func DefaultPreferences(lang string, mode InstallMode, now time.Time) Document {
	if lang == "" {
		lang = "en"
	}
	if mode == "" {
		mode = InstallGlobal
	}
	doc := Document{
		"version": CurrentVersion,
		"general": map[string]any{
			"preferredLang": lang,
			"templateLang":  lang,
			"aiOutputLang":  lang,
			"currentTool":   "claude-code",
		},
		"tools": map[string]any{
			"claudeCode": map[string]any{
				"enabled":     true,
				"installType": string(mode),
				"outputStyle": "engineer-professional",
			},
			"codex": map[string]any{
				"enabled":     false,
				"installType": string(mode),
			},
		},
		"api": map[string]any{
			"keyName": "anthropic",
			"timeout": float64(120000),
		},
		"features": map[string]any{
			"autoUpdate":         true,
			"telemetry":          false,
			"checkIntervalHours": float64(24),
		},
	}
	doc.Stamp(now)
	return doc
}

// DefaultSettings returns a minimal native settings document. The wrapped
// tool owns this file; defaults stay conservative so a fresh write never
// grants permissions the user did not ask for.
func DefaultSettings() Document {
	return Document{
		"env": map[string]any{},
		"permissions": map[string]any{
			"allow": []any{},
			"deny":  []any{},
		},
	}
}

// DefaultState returns a complete runtime-state document.
func DefaultState(currentVersion string, now time.Time) Document {
	doc := Document{
		"version":  CurrentVersion,
		"sessions": []any{},
		"cache": map[string]any{
			"lastCleanup": nil,
			"size":        float64(0),
			"maxAge":      float64(30 * 24), // hours
		},
		"updates": map[string]any{
			"lastCheck":       nil,
			"lastVersion":     "",
			"currentVersion":  currentVersion,
			"updateAvailable": false,
		},
	}
	doc.Stamp(now)
	return doc
}
