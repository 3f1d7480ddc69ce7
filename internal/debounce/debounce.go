// Package debounce delays work until a burst of triggers has settled.
// Timers are grouped by class; scheduling in a class replaces whatever was
// pending in that class and leaves other classes alone.
package debounce

import (
	"sync"
	"time"
)

type pending struct {
	timer *time.Timer
	gen   uint64
}

type Debouncer struct {
	mu      sync.Mutex
	gen     uint64
	timers  map[string]pending
	stopped bool
}

func New() *Debouncer {
	return &Debouncer{timers: make(map[string]pending)}
}

// Schedule runs fn once delay has passed without another Schedule or Cancel
// for the same class. fn runs on its own goroutine.
func (d *Debouncer) Schedule(class string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if p, ok := d.timers[class]; ok {
		p.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timers[class] = pending{
		gen:   gen,
		timer: time.AfterFunc(delay, func() { d.fire(class, gen, fn) }),
	}
}

// fire drops callbacks whose timer was replaced after it had already
// expired but before it took the lock.
func (d *Debouncer) fire(class string, gen uint64, fn func()) {
	d.mu.Lock()
	p, ok := d.timers[class]
	if !ok || p.gen != gen || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, class)
	d.mu.Unlock()

	fn()
}

// Cancel drops the pending task for class. It reports whether one was pending.
func (d *Debouncer) Cancel(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.timers[class]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.timers, class)
	return true
}

func (d *Debouncer) Pending(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[class]
	return ok
}

// Stop cancels everything and makes later Schedule calls no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for class, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, class)
	}
}
