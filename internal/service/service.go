// Package service exposes the configuration platform behind one
// namespaced entry point. CLI commands and the plugin manager construct a
// Service once at process start and pass it down; there are no package
// level singletons, so tests build independent services over isolated
// temp directories.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/logging"
	"github.com/ccjk/ccjk/internal/merge"
	"github.com/ccjk/ccjk/internal/migrate"
	"github.com/ccjk/ccjk/internal/schema"
	"github.com/ccjk/ccjk/internal/watch"
)

// Options configures a Service.
type Options struct {
	Paths config.Paths
	// Version is the running CLI version, recorded in runtime state.
	Version string
	Logger  *logging.Logger
	// Credentials is the external secret store; never written to scope
	// files. Defaults to the in-memory store.
	Credentials CredentialStore
	// Debounce overrides the hot-reload debounce delay.
	Debounce time.Duration
}

// Service composes every scope manager with the merge, migration and
// hot-reload machinery.
type Service struct {
	paths config.Paths
	log   *logging.Logger
	creds CredentialStore

	Preferences *config.PreferencesManager
	Settings    *config.SettingsManager
	State       *config.StateManager

	engine   *migrate.Engine
	debounce time.Duration
}

// New builds a Service. Zero-value paths resolve to the per-user defaults.
func New(opts Options) (*Service, error) {
	paths := opts.Paths
	if paths.RootDir == "" {
		resolved, err := config.DefaultPaths()
		if err != nil {
			return nil, err
		}
		if paths.ClaudeDir == "" {
			paths.ClaudeDir = resolved.ClaudeDir
		}
		paths.RootDir = resolved.RootDir
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	creds := opts.Credentials
	if creds == nil {
		creds = NewMemoryCredentialStore()
	}

	s := &Service{
		paths:       paths,
		log:         log,
		creds:       creds,
		Preferences: config.NewPreferencesManager(paths, log),
		Settings:    config.NewSettingsManager(paths, log),
		State:       config.NewStateManager(paths, opts.Version, log),
		debounce:    opts.Debounce,
	}
	s.engine = migrate.NewEngine(paths, s.Preferences, s.Settings, s.State, log)
	return s, nil
}

// Paths returns the path layout this service operates on.
func (s *Service) Paths() config.Paths { return s.paths }

// Credentials returns the external credential store collaborator.
func (s *Service) Credentials() CredentialStore { return s.creds }

// Manager returns the generic manager for a concrete scope.
func (s *Service) Manager(scope config.Scope) (*config.Manager, error) {
	switch scope {
	case config.ScopePreferences:
		return s.Preferences.Manager, nil
	case config.ScopeSettings:
		return s.Settings.Manager, nil
	case config.ScopeState:
		return s.State.Manager, nil
	}
	return nil, fmt.Errorf("scope %q has no manager", scope)
}

// Read loads a scope document; nil when the file does not exist.
func (s *Service) Read(scope config.Scope) (config.Document, error) {
	m, err := s.Manager(scope)
	if err != nil {
		return nil, err
	}
	return m.Read()
}

// Write validates and persists a scope document.
func (s *Service) Write(scope config.Scope, doc config.Document) error {
	m, err := s.Manager(scope)
	if err != nil {
		return err
	}
	return m.Write(doc)
}

// Update applies a partial document at section granularity.
func (s *Service) Update(scope config.Scope, partial config.Document) error {
	m, err := s.Manager(scope)
	if err != nil {
		return err
	}
	return m.Update(partial)
}

// Get resolves a dot-path inside a scope via the schema walker.
func (s *Service) Get(scope config.Scope, path string) (any, error) {
	m, err := s.Manager(scope)
	if err != nil {
		return nil, err
	}
	doc, err := m.GetOrDefault()
	if err != nil {
		return nil, err
	}
	value, _, err := schema.Resolve(m.Schema(), map[string]any(doc), path)
	return value, err
}

// Set writes one schema-checked value at a dot-path and persists the
// scope.
func (s *Service) Set(scope config.Scope, path string, value any) error {
	m, err := s.Manager(scope)
	if err != nil {
		return err
	}
	doc, err := m.GetOrDefault()
	if err != nil {
		return err
	}
	if err := schema.Set(m.Schema(), map[string]any(doc), path, value); err != nil {
		return err
	}
	return m.Write(doc)
}

// Validate checks the on-disk document of one scope, or of every scope for
// ScopeAll. A missing file validates its defaults, which always pass.
func (s *Service) Validate(scope config.Scope) error {
	if scope == config.ScopeAll {
		for _, sc := range config.Scopes() {
			if err := s.Validate(sc); err != nil {
				return err
			}
		}
		return nil
	}
	m, err := s.Manager(scope)
	if err != nil {
		return err
	}
	doc, err := m.GetOrDefault()
	if err != nil {
		return err
	}
	return m.Validate(doc)
}

// MergeTemplate merges a template tree into a scope document using the
// scope's merge semantics, persists the result, and reports the conflicts
// that were resolved.
func (s *Service) MergeTemplate(scope config.Scope, template config.Document, opts merge.Options) (merge.Result, error) {
	switch scope {
	case config.ScopeSettings:
		return s.Settings.ApplyTemplate(template)
	case config.ScopePreferences:
		current, err := s.Preferences.GetOrDefault()
		if err != nil {
			return merge.Result{}, err
		}
		res := merge.MergePreferences(map[string]any(current), map[string]any(template), opts)
		if err := s.Preferences.Write(config.Document(res.Result)); err != nil {
			return res, err
		}
		return res, nil
	}

	m, err := s.Manager(scope)
	if err != nil {
		return merge.Result{}, err
	}
	current, err := m.GetOrDefault()
	if err != nil {
		return merge.Result{}, err
	}
	res := merge.Merge(map[string]any(current), map[string]any(template), opts)
	if err := m.Write(config.Document(res.Result)); err != nil {
		return res, err
	}
	return res, nil
}

// RedactedView returns a clone of the scope document (or its defaults)
// with credential-shaped values masked. Command output and log lines print
// this view, never the raw document.
func (s *Service) RedactedView(scope config.Scope) (config.Document, error) {
	m, err := s.Manager(scope)
	if err != nil {
		return nil, err
	}
	doc, err := m.GetOrDefault()
	if err != nil {
		return nil, err
	}
	out := doc.Clone()
	s.redactTree(m.Schema(), map[string]any(out))
	return out, nil
}

// redactTree masks every string the schema declares as an API key, and
// runs the remaining strings through the log sanitizer so key material in
// undeclared fields (env vars the schema does not know) is caught too.
func (s *Service) redactTree(f *schema.Field, value map[string]any) {
	for key, v := range value {
		var child *schema.Field
		if f != nil {
			child = f.Properties[key]
		}
		switch val := v.(type) {
		case map[string]any:
			s.redactTree(child, val)
		case string:
			if child != nil && child.Format == schema.FormatAPIKey {
				value[key] = "[REDACTED]"
				continue
			}
			value[key] = s.log.Sanitize(val)
		}
	}
}

// BackupAll snapshots every scope file that exists and returns the backup
// path per scope.
func (s *Service) BackupAll() (map[config.Scope]string, error) {
	out := make(map[config.Scope]string)
	for _, scope := range config.Scopes() {
		m, err := s.Manager(scope)
		if err != nil {
			return out, err
		}
		path, err := m.Backup()
		if err != nil {
			return out, err
		}
		if path != "" {
			out[scope] = path
		}
	}
	return out, nil
}

// NeedsMigration reports whether any legacy source still awaits migration.
func (s *Service) NeedsMigration() bool {
	return s.engine.NeedsMigration()
}

// Migrate runs the migration engine.
func (s *Service) Migrate(opts migrate.Options) *migrate.Result {
	return s.engine.Run(opts)
}

// Watcher builds a hot-reload watcher for one scope. The caller owns
// Start/Stop.
func (s *Service) Watcher(scope config.Scope) (*watch.Watcher, error) {
	m, err := s.Manager(scope)
	if err != nil {
		return nil, err
	}
	return watch.New(m.Path(), watch.Options{
		Load: func() (map[string]any, error) {
			doc, err := m.Read()
			if err != nil {
				return nil, err
			}
			return map[string]any(doc), nil
		},
		Validate: func(doc map[string]any) error {
			return m.Validate(config.Document(doc))
		},
		Debounce: s.debounce,
		Logger:   s.log.WithScope(string(scope)),
	})
}

// WatchAll starts a watcher for every scope, registers handler on each,
// and blocks until ctx is cancelled. Watchers are stopped before return.
func (s *Service) WatchAll(ctx context.Context, handler watch.Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, scope := range config.Scopes() {
		w, err := s.Watcher(scope)
		if err != nil {
			return err
		}
		w.Subscribe(handler)
		g.Go(func() error {
			if err := w.Start(); err != nil {
				return fmt.Errorf("starting %s watcher: %w", scope, err)
			}
			<-ctx.Done()
			w.Stop()
			return nil
		})
	}
	return g.Wait()
}
