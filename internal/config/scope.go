// Package config owns the independently-persisted configuration documents
// of the ccjk CLI: user preferences, the wrapped tool's native settings,
// and ephemeral runtime state. Each scope maps to exactly one file and one
// schema; scope managers wrap the atomic file store with defaults,
// validation, and typed access.
package config

import "fmt"

// Scope identifies one independently-persisted configuration document.
type Scope string

const (
	// ScopePreferences is the tool-agnostic user preferences document.
	ScopePreferences Scope = "preferences"
	// ScopeSettings is the wrapped external tool's own settings document.
	ScopeSettings Scope = "native-settings"
	// ScopeState is runtime state: sessions, cache and update tracking.
	ScopeState Scope = "runtime-state"
	// ScopeAll addresses every scope at once in facade operations.
	ScopeAll Scope = "all"
)

// ParseScope converts a user-supplied scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopePreferences, ScopeSettings, ScopeState, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q (expected preferences, native-settings, runtime-state or all)", s)
}

// Scopes lists the concrete scopes, in a fixed order.
func Scopes() []Scope {
	return []Scope{ScopePreferences, ScopeSettings, ScopeState}
}

// CurrentVersion is the document format version this build reads and writes
// for the preferences and runtime-state scopes.
const CurrentVersion = "1.0.0"

// Supported user-facing languages for preferences validation.
var SupportedLanguages = []string{"zh-CN", "zh-TW", "en", "ja", "ko"}

// Supported wrapped tools.
var SupportedTools = []string{"claude-code", "codex"}
