package watch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccjk/ccjk/internal/logging"
)

// Source tags where a change event originated.
type Source string

const (
	SourceFile      Source = "file"
	SourceAPI       Source = "api"
	SourceMigration Source = "migration"
)

// Event is delivered once per changed leaf path.
type Event struct {
	Path      string
	OldValue  any
	NewValue  any
	Timestamp time.Time
	Source    Source
}

// Handler receives change events. Handlers run synchronously on the watch
// goroutine; a panicking or slow handler affects only its own delivery.
type Handler func(Event)

// Options configures a Watcher.
type Options struct {
	// Load reads the current document. It returns (nil, nil) when the
	// backing file does not exist.
	Load func() (map[string]any, error)
	// Validate, when set, gates each reload: a snapshot that fails
	// validation is dropped and the last known good one is kept.
	Validate func(map[string]any) error
	// Backend overrides the default fsnotify backend.
	Backend Backend
	// Debounce is the quiet period after a raw notification before the
	// file is reloaded. Defaults to 300ms.
	Debounce time.Duration
	// RestartBackoff is the pause before restarting a failed backend.
	// Defaults to one second.
	RestartBackoff time.Duration
	Logger         *logging.Logger
}

// Watcher observes one scope file, debounces bursts of raw notifications,
// and fans out leaf-level change events to its subscribers.
type Watcher struct {
	path    string
	backend Backend
	opts    Options
	log     *logging.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	last     map[string]any
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// New creates a watcher for path. Call Start to begin observing.
func New(path string, opts Options) (*Watcher, error) {
	if opts.Load == nil {
		return nil, errors.New("watch: Options.Load is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if opts.RestartBackoff <= 0 {
		opts.RestartBackoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	backend := opts.Backend
	if backend == nil {
		backend = NewFSNotifyBackend(path)
	}
	return &Watcher{
		path:     path,
		backend:  backend,
		opts:     opts,
		log:      opts.Logger.With("path", path),
		handlers: make(map[string]Handler),
	}, nil
}

// Subscribe registers a handler and returns its unsubscribe function.
// Subscribing is independent of Start/Stop; the registry survives backend
// restarts.
func (w *Watcher) Subscribe(h Handler) func() {
	id := uuid.NewString()
	w.mu.Lock()
	w.handlers[id] = h
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start performs an initial synchronous load to establish the last-known
// snapshot, then begins watching. It is an error to start a running
// watcher.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher for %s already running", w.path)
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	snapshot, err := w.opts.Load()
	if err != nil {
		w.log.Warn("initial load failed, starting from empty snapshot", "error", err)
		snapshot = nil
	}
	w.mu.Lock()
	w.last = snapshot
	w.mu.Unlock()

	if err := w.backend.Start(); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.loop()
	w.log.Debug("watching")
	return nil
}

// Stop releases the watch and cancels any pending debounce timer. After
// Stop returns no further events fire. The subscriber registry is kept, so
// the watcher can be started again.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop := w.stop
	done := w.done
	w.mu.Unlock()

	close(stop)
	<-done
	if err := w.backend.Stop(); err != nil {
		w.log.Warn("backend stop", "error", err)
	}
}

// Snapshot returns the last known good document snapshot.
func (w *Watcher) Snapshot() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Watcher) loop() {
	defer close(w.done)

	var debounce *time.Timer
	var debounceC <-chan time.Time
	stopTimer := func() {
		if debounce != nil {
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce = nil
			debounceC = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-w.stop:
			return

		case _, ok := <-w.backend.Events():
			if !ok {
				if !w.restartBackend() {
					return
				}
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.opts.Debounce)
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil
			w.reload()

		case err, ok := <-w.backend.Errors():
			if !ok {
				if !w.restartBackend() {
					return
				}
				continue
			}
			w.log.Warn("watch backend error, restarting", "error", err)
			if !w.restartBackend() {
				return
			}
		}
	}
}

// restartBackend stops and restarts the backend after a fixed backoff. It
// returns false when the watcher was stopped while waiting.
func (w *Watcher) restartBackend() bool {
	_ = w.backend.Stop()
	select {
	case <-w.stop:
		return false
	case <-time.After(w.opts.RestartBackoff):
	}
	if err := w.backend.Start(); err != nil {
		w.log.Error("watch backend restart failed", "error", err)
		return false
	}
	return true
}

// reload loads the file, gates it through validation, diffs it against the
// last known snapshot and fans out one event per changed leaf.
func (w *Watcher) reload() {
	snapshot, err := w.opts.Load()
	if err != nil {
		w.log.Warn("reload failed, keeping last known snapshot", "error", err)
		return
	}
	if snapshot != nil && w.opts.Validate != nil {
		if err := w.opts.Validate(snapshot); err != nil {
			// A corrupt intermediate write never propagates as a change.
			w.log.Warn("reloaded document invalid, keeping last known snapshot", "error", err)
			return
		}
	}

	w.mu.Lock()
	previous := w.last
	w.last = snapshot
	handlers := make([]Handler, 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	changes := Diff(previous, snapshot)
	if len(changes) == 0 {
		return
	}
	now := time.Now()
	for _, c := range changes {
		ev := Event{
			Path:      c.Path,
			OldValue:  c.Old,
			NewValue:  c.New,
			Timestamp: now,
			Source:    SourceFile,
		}
		for _, h := range handlers {
			w.invoke(h, ev)
		}
	}
}

// invoke runs one handler, catching panics so a failing subscriber cannot
// block the others.
func (w *Watcher) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("change handler panicked", "event_path", ev.Path, "panic", fmt.Sprint(r))
		}
	}()
	h(ev)
}
