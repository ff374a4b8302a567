// Package migrate detects configuration files in pre-current formats and
// transforms them into the current scope documents. Migration is the only
// sanctioned path from a legacy shape into the versioned scopes: detection
// is side-effect-free, every destructive run takes a backup first, and
// running twice in a row is a no-op the second time.
package migrate

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/fsutil"
	"github.com/ccjk/ccjk/internal/logging"
)

// Kind classifies a legacy source format.
type Kind string

const (
	// KindFlatJSON is the original single-file JSON config with top-level
	// preferredLang / codeToolType keys.
	KindFlatJSON Kind = "flat-json"
	// KindYAML is the short-lived YAML rendition of the same flat shape.
	KindYAML Kind = "yaml"
	// KindPrefsV0 is a 0.x preferences file predating the sectioned layout.
	KindPrefsV0 Kind = "preferences-v0"
)

// LegacyInfo describes one detected legacy source.
type LegacyInfo struct {
	Path    string
	Kind    Kind
	Version string
}

// Step is one versioned transformation from a legacy source kind into a
// current scope document. Steps are ordered and idempotent: once a source
// is migrated its Detect returns false and re-running is a no-op.
type Step struct {
	Name          string
	Description   string
	Source        Kind
	TargetScope   config.Scope
	TargetVersion string

	// Detect re-checks that the step still applies to the source. It must
	// be side-effect-free.
	Detect func(info LegacyInfo) bool
	// Migrate is a pure transformation from the legacy content into a
	// fully-defaulted current document plus the dot-paths it populated.
	Migrate func(info LegacyInfo, now time.Time) (config.Document, []string, error)
	// Rollback undoes any partial effect. Optional; the engine only calls
	// it when a persist failed after the legacy file was already moved.
	Rollback func(info LegacyInfo) error
}

// Options configures a migration run.
type Options struct {
	// Backup snapshots every target scope file before anything is written.
	Backup bool
	// DryRun performs detection and transformation but persists nothing.
	DryRun bool
	// Force runs the step matching even when detection found nothing new.
	Force bool
}

// DefaultOptions enables backups.
func DefaultOptions() Options {
	return Options{Backup: true}
}

// SourceResult records the outcome for one legacy source.
type SourceResult struct {
	Step          string
	Scope         config.Scope
	LegacyPath    string
	FromVersion   string
	ToVersion     string
	MigratedPaths []string
	BackupPath    string
}

// Result is the outcome of a migration run. One source failing does not
// abort the rest: Errors collects per-source failures while Migrated still
// reflects everything that succeeded.
type Result struct {
	Success   bool
	Migrated  []SourceResult
	Errors    []string
	Warnings  []string
	BackupDir string
}

// MigratedScopes lists the scopes that were successfully migrated.
func (r *Result) MigratedScopes() []config.Scope {
	out := make([]config.Scope, 0, len(r.Migrated))
	for _, m := range r.Migrated {
		out = append(out, m.Scope)
	}
	return out
}

// Engine runs migrations against a set of scope managers.
type Engine struct {
	paths    config.Paths
	prefs    *config.PreferencesManager
	settings *config.SettingsManager
	state    *config.StateManager
	steps    []Step
	log      *logging.Logger
	now      func() time.Time
}

// NewEngine builds a migration engine with the built-in step registry.
func NewEngine(paths config.Paths, prefs *config.PreferencesManager, settings *config.SettingsManager, state *config.StateManager, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	e := &Engine{
		paths:    paths,
		prefs:    prefs,
		settings: settings,
		state:    state,
		log:      log,
		now:      time.Now,
	}
	e.steps = defaultSteps(paths)
	return e
}

// Steps returns the registered steps in order.
func (e *Engine) Steps() []Step { return e.steps }

// NeedsMigration reports whether a legacy source exists whose target scope
// does not already hold an up-to-date current document.
func (e *Engine) NeedsMigration() bool {
	for _, info := range e.DetectLegacy() {
		step, err := e.matchStep(info)
		if err != nil {
			// An ambiguous source still needs attention.
			return true
		}
		doc, readErr := e.managerFor(step.TargetScope).Read()
		if readErr != nil || doc == nil {
			return true
		}
		if config.CompareVersions(doc.Version(), config.CurrentVersion) < 0 {
			return true
		}
	}
	return false
}

// Run migrates every detected legacy source. When nothing is detected and
// Force is unset the run is a successful no-op.
func (e *Engine) Run(opts Options) *Result {
	res := &Result{Success: true}

	detected := e.DetectLegacy()
	if len(detected) == 0 && !opts.Force {
		e.log.Debug("no legacy configuration detected")
		return res
	}

	if opts.Backup && !opts.DryRun {
		dir, err := e.backupTargets()
		if err != nil {
			// A failed backup aborts the whole run: migration may destroy
			// user data and must stay recoverable.
			res.Success = false
			res.Errors = append(res.Errors, fmt.Sprintf("backup failed: %v", err))
			return res
		}
		res.BackupDir = dir
	}

	for _, info := range detected {
		src, err := e.migrateSource(info, opts)
		if err != nil {
			res.Success = false
			res.Errors = append(res.Errors, fmt.Sprintf("%s (%s): %v", info.Path, info.Kind, err))
			continue
		}
		res.Migrated = append(res.Migrated, src)
	}
	return res
}

func (e *Engine) migrateSource(info LegacyInfo, opts Options) (SourceResult, error) {
	step, err := e.matchStep(info)
	if err != nil {
		return SourceResult{}, err
	}
	log := e.log.WithStep(step.Name)

	doc, migratedPaths, err := step.Migrate(info, e.now())
	if err != nil {
		return SourceResult{}, fmt.Errorf("transforming: %w", err)
	}

	src := SourceResult{
		Step:          step.Name,
		Scope:         step.TargetScope,
		LegacyPath:    info.Path,
		FromVersion:   info.Version,
		ToVersion:     step.TargetVersion,
		MigratedPaths: migratedPaths,
	}

	if opts.DryRun {
		log.Info("dry run, not persisting", "scope", string(step.TargetScope))
		return src, nil
	}

	target := e.managerFor(step.TargetScope)
	// An in-place upgrade (the legacy file is the target file, as with a
	// 0.x preferences.toml) is retired by the write itself. Snapshot it
	// before overwriting instead of moving it aside afterwards.
	inPlace := filepath.Clean(info.Path) == filepath.Clean(target.Path())
	if inPlace {
		backup, err := fsutil.BackupFile(info.Path)
		if err != nil {
			return SourceResult{}, fmt.Errorf("backing up legacy file: %w", err)
		}
		src.BackupPath = backup
	}

	if err := target.Write(doc); err != nil {
		return SourceResult{}, fmt.Errorf("persisting: %w", err)
	}

	if !inPlace {
		// Retire the legacy file so the next run detects nothing: snapshot
		// it to a timestamped sibling, then remove the original.
		backup, err := retireLegacy(info.Path)
		if err != nil {
			if step.Rollback != nil {
				if rbErr := step.Rollback(info); rbErr != nil {
					log.Error("rollback failed", "error", rbErr)
				}
			}
			return SourceResult{}, fmt.Errorf("retiring legacy file: %w", err)
		}
		src.BackupPath = backup
	}

	log.Info("legacy source migrated",
		"from", info.Path, "scope", string(step.TargetScope), "backup", src.BackupPath)
	return src, nil
}

// matchStep selects the single applicable step for a source. No match or
// more than one match is a hard failure, never a silent skip.
func (e *Engine) matchStep(info LegacyInfo) (*Step, error) {
	var matched []*Step
	for i := range e.steps {
		step := &e.steps[i]
		if step.Source == info.Kind && step.Detect(info) {
			matched = append(matched, step)
		}
	}
	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("no migration step handles %s source at %s", info.Kind, info.Path)
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, s := range matched {
			names[i] = s.Name
		}
		return nil, fmt.Errorf("ambiguous migration for %s source at %s: %v", info.Kind, info.Path, names)
	}
}

func (e *Engine) managerFor(scope config.Scope) scopeWriter {
	switch scope {
	case config.ScopeSettings:
		return e.settings.Manager
	case config.ScopeState:
		return e.state.Manager
	default:
		return e.prefs.Manager
	}
}

// scopeWriter is the slice of the scope manager the engine needs.
type scopeWriter interface {
	Read() (config.Document, error)
	Write(doc config.Document) error
	Path() string
}

// backupTargets snapshots every existing scope file into a timestamped
// migration backup directory and returns its path.
func (e *Engine) backupTargets() (string, error) {
	stamp := e.now().Format("20060102-150405")
	dir := filepath.Join(e.paths.BackupDir(), "migration-"+stamp)
	for n := 1; dirExists(dir); n++ {
		dir = filepath.Join(e.paths.BackupDir(), fmt.Sprintf("migration-%s-%d", stamp, n))
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}
	for _, scope := range config.Scopes() {
		path, err := e.paths.ForScope(scope)
		if err != nil {
			return "", err
		}
		if !fsutil.Exists(path) {
			continue
		}
		if err := fsutil.CopyFile(path, filepath.Join(dir, filepath.Base(path))); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func retireLegacy(path string) (string, error) {
	backup, err := fsutil.BackupFile(path)
	if err != nil {
		return "", err
	}
	if backup == "" {
		return "", nil
	}
	if err := removeFile(path); err != nil {
		return backup, err
	}
	return backup, nil
}
