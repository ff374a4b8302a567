package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ccjk/ccjk/internal/fsutil"
	"github.com/ccjk/ccjk/internal/logging"
	"github.com/ccjk/ccjk/internal/schema"
)

// codec serializes a scope document to its on-disk format.
type codec interface {
	Marshal(doc Document) ([]byte, error)
	Unmarshal(data []byte) (Document, error)
}

type jsonCodec struct{}

func (jsonCodec) Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type tomlCodec struct{}

func (tomlCodec) Marshal(doc Document) ([]byte, error) {
	return toml.Marshal(map[string]any(doc))
}

func (tomlCodec) Unmarshal(data []byte) (Document, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return Document(raw), nil
}

// Manager wraps the atomic file store for one scope with its schema,
// defaults and extra validation rules. All operations are synchronous and
// safe for concurrent use within the process.
type Manager struct {
	scope    Scope
	path     string
	codec    codec
	schema   *schema.Field
	defaults func(now time.Time) Document
	extra    func(doc Document) []string
	log      *logging.Logger
	now      func() time.Time
	// stamp controls whether Write rewrites lastUpdated. The
	// native-settings document belongs to the wrapped tool, so ccjk never
	// adds bookkeeping keys to it.
	stamp bool

	mu sync.Mutex
	// lastVersion is the highest document version written through this
	// manager in the current process lifetime. Writes may not go below it.
	lastVersion string
}

// Scope returns the scope this manager owns.
func (m *Manager) Scope() Scope { return m.scope }

// Path returns the backing file path.
func (m *Manager) Path() string { return m.path }

// Schema returns the scope's schema tree.
func (m *Manager) Schema() *schema.Field { return m.schema }

// Read loads the scope document from disk. It returns (nil, nil) when the
// backing file does not exist. A file that exists but cannot be decoded is
// reported as a *ParseError; the file is left untouched.
func (m *Manager) Read() (Document, error) {
	data, err := fsutil.Read(m.path)
	if err != nil {
		if errors.Is(err, fsutil.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	doc, err := m.codec.Unmarshal(data)
	if err != nil {
		return nil, &ParseError{Scope: m.scope, Path: m.path, Err: err}
	}
	return doc, nil
}

// GetOrDefault never returns nil: a missing file falls back to the scope's
// built-in defaults. Parse errors still surface.
func (m *Manager) GetOrDefault() (Document, error) {
	doc, err := m.Read()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return m.defaults(m.now()), nil
	}
	return doc, nil
}

// Write validates doc, stamps lastUpdated on scopes that carry it, and
// persists the document atomically.
// An invalid document is refused with a *ValidationError and nothing is
// written. The document version may never decrease within one process.
func (m *Manager) Write(doc Document) error {
	if err := m.Validate(doc); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastVersion != "" && doc.Version() != "" &&
		CompareVersions(doc.Version(), m.lastVersion) < 0 {
		return fmt.Errorf("%s version %s is below already-written %s",
			m.scope, doc.Version(), m.lastVersion)
	}

	out := doc.Clone()
	if m.stamp {
		out.Stamp(m.now())
	}

	data, err := m.codec.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", m.scope, err)
	}
	if err := fsutil.AtomicWrite(m.path, data, 0o600); err != nil {
		return err
	}

	if v := out.Version(); v != "" {
		m.lastVersion = v
	}
	m.log.Debug("scope written", "scope", string(m.scope), "path", m.path)
	return nil
}

// Update applies a partial document on top of the current one (or the
// defaults when no file exists) and writes the result. Merging is shallow
// at section granularity: general, tools.claudeCode and tools.codex are
// replaced independently rather than wholesale.
func (m *Manager) Update(partial Document) error {
	current, err := m.GetOrDefault()
	if err != nil {
		return err
	}
	return m.Write(sectionMerge(current, partial))
}

// Validate checks doc against the scope schema plus scope-specific rules
// without touching disk.
func (m *Manager) Validate(doc Document) error {
	res := schema.Validate(map[string]any(doc), m.schema)
	msgs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		msgs = append(msgs, e.Error())
	}
	if m.extra != nil {
		msgs = append(msgs, m.extra(doc)...)
	}
	if len(msgs) > 0 {
		return &ValidationError{Scope: m.scope, Errors: msgs}
	}
	for _, w := range res.Warnings {
		m.log.Warn("unknown config field", "scope", string(m.scope), "path", w.Path)
	}
	return nil
}

// Backup snapshots the current file to a timestamped sibling and returns
// the backup path, or "" when there is nothing to back up.
func (m *Manager) Backup() (string, error) {
	path, err := fsutil.BackupFile(m.path)
	if err != nil {
		return "", err
	}
	if path != "" {
		m.log.Info("scope backed up", "scope", string(m.scope), "backup", path)
	}
	return path, nil
}

// Delete removes the backing file. Missing files are not an error.
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", m.path, err)
	}
	return nil
}

// Reset backs up the current file, then writes the scope defaults. The
// backup path is returned even when it is "".
func (m *Manager) Reset() (string, error) {
	backup, err := m.Backup()
	if err != nil {
		return "", err
	}
	if err := m.Write(m.defaults(m.now())); err != nil {
		return backup, err
	}
	return backup, nil
}

// sectionMerge merges partial into base one nested level deep: a section
// present in both has its immediate children replaced key-by-key, anything
// deeper is replaced wholesale.
func sectionMerge(base, partial Document) Document {
	out := base.Clone()
	for key, pv := range partial {
		bv, exists := out[key]
		po, pIsObj := pv.(map[string]any)
		bo, bIsObj := bv.(map[string]any)
		if !exists || !pIsObj || !bIsObj {
			out[key] = cloneAny(pv)
			continue
		}
		merged := cloneTree(bo)
		for sub, sv := range po {
			merged[sub] = cloneAny(sv)
		}
		out[key] = merged
	}
	return out
}

func cloneAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneTree(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}
