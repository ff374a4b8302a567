package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccjk/ccjk/internal/logging"
)

// StateManager owns the runtime-state scope: sessions, cache bookkeeping
// and update tracking. The document is machine-authored, never edited by
// the user.
type StateManager struct {
	*Manager
	currentVersion string
}

// NewStateManager builds the runtime-state scope manager. currentVersion
// is the running CLI version recorded in the updates section.
func NewStateManager(paths Paths, currentVersion string, log *logging.Logger) *StateManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &StateManager{
		Manager: &Manager{
			scope:  ScopeState,
			path:   paths.State(),
			codec:  jsonCodec{},
			schema: StateSchema(),
			defaults: func(now time.Time) Document {
				return DefaultState(currentVersion, now)
			},
			log:   log.WithScope(string(ScopeState)),
			now:   time.Now,
			stamp: true,
		},
		currentVersion: currentVersion,
	}
}

// StartSession appends a session record for the given tool and returns its
// id.
func (m *StateManager) StartSession(tool, cwd string) (string, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	sessions, _ := doc["sessions"].([]any)
	sessions = append(sessions, map[string]any{
		"id":        id,
		"tool":      tool,
		"startedAt": time.Now().UTC().Format(time.RFC3339),
		"cwd":       cwd,
	})
	doc["sessions"] = sessions
	if err := m.Write(doc); err != nil {
		return "", err
	}
	return id, nil
}

// RecordUpdateCheck stores the result of an update probe.
func (m *StateManager) RecordUpdateCheck(latest string) error {
	available := latest != "" && CompareVersions(latest, m.currentVersion) > 0
	return m.Update(Document{
		"updates": map[string]any{
			"lastCheck":       time.Now().UTC().Format(time.RFC3339),
			"lastVersion":     latest,
			"currentVersion":  m.currentVersion,
			"updateAvailable": available,
		},
	})
}

// RecordCacheCleanup stores the time and resulting size of a cache sweep.
func (m *StateManager) RecordCacheCleanup(size float64) error {
	return m.Update(Document{
		"cache": map[string]any{
			"lastCleanup": time.Now().UTC().Format(time.RFC3339),
			"size":        size,
		},
	})
}

// Sessions returns the recorded session list, never nil.
func (m *StateManager) Sessions() ([]map[string]any, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return nil, err
	}
	raw, _ := doc["sessions"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(map[string]any); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// UpdateAvailable reports whether the last check found a newer version.
func (m *StateManager) UpdateAvailable() (bool, error) {
	doc, err := m.GetOrDefault()
	if err != nil {
		return false, err
	}
	updates, ok := doc.Section("updates")
	if !ok {
		return false, nil
	}
	b, _ := updates["updateAvailable"].(bool)
	return b, nil
}
