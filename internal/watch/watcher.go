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

// Package watch re-runs validation when op documents change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a changed file is reported.
const DefaultDebounce = 100 * time.Millisecond

// eventTypeMap maps fsnotify operations to event types. Chmod is ignored.
var eventTypeMap = map[fsnotify.Op]string{
	fsnotify.Create: "created",
	fsnotify.Write:  "modified",
	fsnotify.Remove: "deleted",
	fsnotify.Rename: "renamed",
}

// Event is a debounced change to one watched file.
type Event struct {
	Path string
	Type string
}

// Watcher reports changes to a fixed set of files. fsnotify watches their
// directories, so files replaced by editors (write to temp, rename) keep
// being seen.
type Watcher struct {
	files    map[string]bool
	matcher  *PatternMatcher
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	// runDone is closed once Run has returned.
	runDone <-chan struct{}
}

// NewWatcher watches files. Paths are made absolute; their parent
// directories are added to fsnotify.
func NewWatcher(files []string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	matcher, err := NewPatternMatcher(nil, DefaultExcludePatterns())
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		matcher:  matcher,
		watcher:  fsw,
		debounce: DefaultDebounce,
		logger:   logger.With(slog.String("component", "watch")),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run delivers events to onChange until ctx is cancelled, then closes the
// watcher. onChange is called from one goroutine at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	defer w.watcher.Close()

	// Cancelled on every return path so a flush blocked on changes
	// always gets released.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.runDone = ctx.Done()

	changes := make(chan Event, 16)
	d := newDebouncer(w.debounce, forward(ctx, changes))
	defer d.stop()

	w.logger.Info("watching op documents", slog.Int("files", len(w.files)))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case ev := <-changes:
			onChange(ev)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify event channel closed")
			}
			if ev, ok := w.filter(event); ok {
				d.add(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error channel closed")
			}
			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// forward returns a flush callback that hands events to changes until
// ctx is done.
func forward(ctx context.Context, changes chan<- Event) func(Event) {
	return func(ev Event) {
		select {
		case changes <- ev:
		case <-ctx.Done():
		}
	}
}

// filter maps an fsnotify event to an Event for a watched file.
func (w *Watcher) filter(event fsnotify.Event) (Event, bool) {
	eventType, ok := eventTypeMap[event.Op]
	if !ok {
		// Combined ops such as Create|Write: take the most significant.
		switch {
		case event.Has(fsnotify.Create):
			eventType = "created"
		case event.Has(fsnotify.Write):
			eventType = "modified"
		default:
			return Event{}, false
		}
	}

	path, err := filepath.Abs(event.Name)
	if err != nil || !w.files[path] || !w.matcher.Match(path) {
		return Event{}, false
	}

	w.logger.Debug("file event", slog.String("type", eventType), slog.String("path", path))
	return Event{Path: path, Type: eventType}, true
}
