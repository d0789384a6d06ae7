// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"sync"
	"time"
)

// debouncer delays delivery of a path until no new event for it has
// arrived within the window. Editors often write a file several times
// per save.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*time.Timer
	pending map[string]Event
	onFlush func(Event)
	stopped bool
}

func newDebouncer(window time.Duration, onFlush func(Event)) *debouncer {
	return &debouncer{
		window:  window,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]Event),
		onFlush: onFlush,
	}
}

// add records ev, replacing any pending event for the same path.
func (d *debouncer) add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if t, ok := d.timers[ev.Path]; ok {
		t.Stop()
	}
	d.pending[ev.Path] = ev
	path := ev.Path
	d.timers[path] = time.AfterFunc(d.window, func() { d.flush(path) })
}

func (d *debouncer) flush(path string) {
	d.mu.Lock()
	ev, ok := d.pending[path]
	delete(d.pending, path)
	delete(d.timers, path)
	stopped := d.stopped
	d.mu.Unlock()

	// onFlush runs outside the lock so it may take its time.
	if ok && !stopped {
		d.onFlush(ev)
	}
}

// stop cancels pending timers without delivering their events.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
		delete(d.pending, path)
	}
}

// pendingCount returns the number of paths waiting to flush.
func (d *debouncer) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
