package watch

import (
	"os"
	"time"
)

// pollBackend implements Backend by polling the target's stat. It exists
// for platforms without usable file-system events and for tests that need
// change detection without real notifications.
type pollBackend struct {
	target   string
	interval time.Duration
	events   chan struct{}
	errors   chan error
	stop     chan struct{}
}

// NewPollBackend watches target by comparing size and modification time
// every interval.
func NewPollBackend(target string, interval time.Duration) Backend {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &pollBackend{target: target, interval: interval}
}

type statKey struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (b *pollBackend) Start() error {
	b.events = make(chan struct{}, 1)
	b.errors = make(chan error, 1)
	b.stop = make(chan struct{})

	last := b.stat()
	// Copies for the goroutine: Stop reassigns the struct fields, so the
	// loop must never read them.
	events, errors, stop := b.events, b.errors, b.stop
	go func() {
		defer close(events)
		defer close(errors)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				current := b.stat()
				if current != last {
					last = current
					select {
					case events <- struct{}{}:
					default:
					}
				}
			}
		}
	}()
	return nil
}

func (b *pollBackend) stat() statKey {
	info, err := os.Stat(b.target)
	if err != nil {
		return statKey{}
	}
	return statKey{exists: true, size: info.Size(), modTime: info.ModTime()}
}

func (b *pollBackend) Stop() error {
	if b.stop == nil {
		return nil
	}
	close(b.stop)
	b.stop = nil
	return nil
}

func (b *pollBackend) Events() <-chan struct{} { return b.events }
func (b *pollBackend) Errors() <-chan error    { return b.errors }
