package fs

import (
	"sync"
	"time"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

// debouncer coalesces bursts of filesystem events per document. Editors and
// atomic renames frequently produce several events for one logical change.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
}

type pendingEvent struct {
	timer *time.Timer
	event core.Event
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules emit for the event after the debounce delay, replacing any
// pending event for the same key.
func (d *debouncer) add(key string, e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[key]; ok {
		p.event = e
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: e}
	p.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		ev := p.event
		delete(d.pending, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			emit(ev)
		}
	})
	d.pending[key] = p
}

// stop cancels all pending timers and rejects further events.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
