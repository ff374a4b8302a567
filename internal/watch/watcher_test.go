package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ccjk/ccjk/internal/fsutil"
)

// fakeBackend drives the watcher from the test without any file system.
type fakeBackend struct {
	events chan struct{}
	errors chan error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		events: make(chan struct{}, 16),
		errors: make(chan error, 1),
	}
}

func (b *fakeBackend) Start() error            { return nil }
func (b *fakeBackend) Stop() error             { return nil }
func (b *fakeBackend) Events() <-chan struct{} { return b.events }
func (b *fakeBackend) Errors() <-chan error    { return b.errors }

// docSource is a mutable in-memory document the watcher's Load reads.
type docSource struct {
	mu  sync.Mutex
	doc map[string]any
	err error
}

func (s *docSource) set(doc map[string]any) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

func (s *docSource) load() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.err
}

// eventSink collects delivered events.
type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) handle(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newTestWatcher(t *testing.T, src *docSource, backend Backend, validate func(map[string]any) error) *Watcher {
	t.Helper()
	w, err := New("test-scope", Options{
		Load:     src.load,
		Validate: validate,
		Backend:  backend,
		Debounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w
}

func TestWatcherDeliversLeafEvents(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"model": "opus"}}
	w := newTestWatcher(t, src, backend, nil)

	sink := &eventSink{}
	w.Subscribe(sink.handle)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	src.set(map[string]any{"model": "sonnet"})
	backend.events <- struct{}{}

	if !waitFor(t, 2*time.Second, func() bool { return len(sink.snapshot()) == 1 }) {
		t.Fatalf("expected one event, got %v", sink.snapshot())
	}
	ev := sink.snapshot()[0]
	if ev.Path != "model" || ev.OldValue != "opus" || ev.NewValue != "sonnet" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Source != SourceFile {
		t.Fatalf("source = %q", ev.Source)
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"counter": 1.0}}
	w, err := New("test-scope", Options{
		Load:     src.load,
		Backend:  backend,
		Debounce: 150 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sink := &eventSink{}
	w.Subscribe(sink.handle)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Two raw notifications inside one debounce window: the intermediate
	// state must never surface.
	src.set(map[string]any{"counter": 2.0})
	backend.events <- struct{}{}
	src.set(map[string]any{"counter": 3.0})
	backend.events <- struct{}{}

	if !waitFor(t, 2*time.Second, func() bool { return len(sink.snapshot()) > 0 }) {
		t.Fatal("no event delivered")
	}
	// Allow a stray second flush to show up before asserting.
	time.Sleep(300 * time.Millisecond)

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %v", events)
	}
	if events[0].OldValue != 1.0 || events[0].NewValue != 3.0 {
		t.Fatalf("event must reflect only the final state: %+v", events[0])
	}
}

func TestWatcherSuppressesInvalidSnapshot(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"model": "opus"}}
	validate := func(doc map[string]any) error {
		if _, ok := doc["model"].(string); !ok {
			return errors.New("model must be a string")
		}
		return nil
	}
	w := newTestWatcher(t, src, backend, validate)

	sink := &eventSink{}
	w.Subscribe(sink.handle)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	src.set(map[string]any{"model": 42.0})
	backend.events <- struct{}{}
	time.Sleep(150 * time.Millisecond)

	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("invalid snapshot must not propagate, got %v", events)
	}
	if w.Snapshot()["model"] != "opus" {
		t.Fatal("last known good snapshot lost")
	}

	// A subsequent valid write diffs against the good snapshot.
	src.set(map[string]any{"model": "sonnet"})
	backend.events <- struct{}{}
	if !waitFor(t, 2*time.Second, func() bool { return len(sink.snapshot()) == 1 }) {
		t.Fatalf("valid follow-up write not delivered: %v", sink.snapshot())
	}
	if ev := sink.snapshot()[0]; ev.OldValue != "opus" {
		t.Fatalf("diff base must be the last good snapshot, got %+v", ev)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"v": 1.0}}
	w := newTestWatcher(t, src, backend, nil)

	kept := &eventSink{}
	dropped := &eventSink{}
	w.Subscribe(kept.handle)
	unsubscribe := w.Subscribe(dropped.handle)
	unsubscribe()

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	src.set(map[string]any{"v": 2.0})
	backend.events <- struct{}{}

	if !waitFor(t, 2*time.Second, func() bool { return len(kept.snapshot()) == 1 }) {
		t.Fatal("remaining subscriber not notified")
	}
	if len(dropped.snapshot()) != 0 {
		t.Fatal("unsubscribed handler still received events")
	}
}

func TestWatcherPanickingHandlerIsolated(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"v": 1.0}}
	w := newTestWatcher(t, src, backend, nil)

	w.Subscribe(func(Event) { panic("subscriber bug") })
	sink := &eventSink{}
	w.Subscribe(sink.handle)

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	src.set(map[string]any{"v": 2.0})
	backend.events <- struct{}{}

	if !waitFor(t, 2*time.Second, func() bool { return len(sink.snapshot()) == 1 }) {
		t.Fatal("healthy subscriber starved by a panicking one")
	}
}

func TestWatcherStopCancelsPendingDebounce(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{"v": 1.0}}
	w := newTestWatcher(t, src, backend, nil)

	sink := &eventSink{}
	w.Subscribe(sink.handle)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	src.set(map[string]any{"v": 2.0})
	backend.events <- struct{}{}
	w.Stop()

	time.Sleep(100 * time.Millisecond)
	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("event fired after Stop: %v", events)
	}
}

func TestWatcherDoubleStartRejected(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	src := &docSource{doc: map[string]any{}}
	w := newTestWatcher(t, src, backend, nil)

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err == nil {
		t.Fatal("second Start must fail while running")
	}
}

func TestWatcherRequiresLoad(t *testing.T) {
	t.Parallel()

	if _, err := New("x", Options{}); err == nil {
		t.Fatal("New must reject a missing Load")
	}
}

func TestWatcherWithPollBackendSeesAtomicWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	write := func(doc map[string]any) {
		data, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := fsutil.AtomicWrite(path, data, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	load := func() (map[string]any, error) {
		data, err := fsutil.Read(path)
		if err != nil {
			if errors.Is(err, fsutil.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return doc, nil
	}

	write(map[string]any{"model": "opus"})

	w, err := New(path, Options{
		Load:     load,
		Backend:  NewPollBackend(path, 10*time.Millisecond),
		Debounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	sink := &eventSink{}
	w.Subscribe(sink.handle)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	write(map[string]any{"model": "sonnet"})

	if !waitFor(t, 5*time.Second, func() bool { return len(sink.snapshot()) >= 1 }) {
		t.Fatal("atomic replacement not observed")
	}
	ev := sink.snapshot()[0]
	if ev.Path != "model" || ev.NewValue != "sonnet" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
