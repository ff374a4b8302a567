// Package watch observes a scope's backing file and fans out one change
// event per modified leaf path to its subscribers. Raw file-system
// notifications are debounced; a reload that fails validation is
// suppressed so corrupt intermediate writes never propagate.
package watch

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ccjk/ccjk/internal/fsutil"
)

// Backend is the low-level file-change capability. Implementations watch a
// single target file (via its parent directory so atomic renames and
// late-created files are seen) and deliver coalesced notifications.
type Backend interface {
	// Start begins watching. It may be called again after Stop.
	Start() error
	// Stop releases the watch. The Events and Errors channels close.
	Stop() error
	// Events delivers one value per observed change to the target file.
	Events() <-chan struct{}
	// Errors delivers backend failures.
	Errors() <-chan error
}

// fsnotifyBackend implements Backend with OS file-system notifications.
type fsnotifyBackend struct {
	target string
	fw     *fsnotify.Watcher
	events chan struct{}
	errors chan error
	stop   chan struct{}
}

// NewFSNotifyBackend watches target using native file-system events. The
// parent directory is watched rather than the file itself, so the backend
// sees atomic-rename replacements and files that do not exist yet.
func NewFSNotifyBackend(target string) Backend {
	return &fsnotifyBackend{target: filepath.Clean(target)}
}

func (b *fsnotifyBackend) Start() error {
	dir := filepath.Dir(b.target)
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	b.fw = fw
	b.events = make(chan struct{}, 1)
	b.errors = make(chan error, 1)
	b.stop = make(chan struct{})

	// The loop works on its own copies of the watcher and channels. Stop
	// only signals and closes; it never touches anything the goroutine
	// reads, so a restart cannot race a loop that is still draining.
	go b.loop(fw, b.events, b.errors, b.stop)
	return nil
}

func (b *fsnotifyBackend) loop(fw *fsnotify.Watcher, events chan struct{}, errors chan error, stop <-chan struct{}) {
	defer close(events)
	defer close(errors)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != b.target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Coalesce: one pending notification is enough.
			select {
			case events <- struct{}{}:
			default:
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			select {
			case errors <- err:
			default:
			}
		}
	}
}

func (b *fsnotifyBackend) Stop() error {
	if b.fw == nil {
		return nil
	}
	close(b.stop)
	err := b.fw.Close()
	b.fw = nil
	return err
}

func (b *fsnotifyBackend) Events() <-chan struct{} { return b.events }
func (b *fsnotifyBackend) Errors() <-chan error    { return b.errors }
