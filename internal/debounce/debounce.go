// Package debounce coalesces bursts of triggers into a single delayed
// callback per named channel. Each new trigger cancels the pending timer for
// its channel before arming a new one, so only the last trigger of a burst
// fires.
package debounce

import (
	"sync"
	"time"
)

// Debouncer manages one pending timer per channel name.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// New creates a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: map[string]*time.Timer{},
	}
}

// Trigger schedules fn to run after the delay, replacing any pending
// callback on the same channel. Triggers after Stop are ignored.
func (d *Debouncer) Trigger(channel string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if timer, ok := d.timers[channel]; ok {
		timer.Stop()
	}
	d.timers[channel] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, channel)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback for one channel, if any.
func (d *Debouncer) Cancel(channel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[channel]; ok {
		timer.Stop()
		delete(d.timers, channel)
	}
}

// Pending reports whether a callback is armed for the channel.
func (d *Debouncer) Pending(channel string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[channel]
	return ok
}

// Stop cancels every pending callback and rejects future triggers. Safe to
// call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for channel, timer := range d.timers {
		timer.Stop()
		delete(d.timers, channel)
	}
}
