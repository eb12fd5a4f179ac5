package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

const debounceDelay = 50 * time.Millisecond

// Watch observes the store's collection directories for external changes to
// document files and emits one debounced event per change. The pattern is a
// doublestar glob matched against the slash-separated path relative to the
// store root (e.g. "posts/**"); an empty pattern matches everything.
//
// The returned channel is closed when ctx is cancelled. Watching supplements
// explicit reindexing, it does not replace it: events report that a file
// changed, not that the index was repaired.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(s.Root); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Root, err)
	}

	// Watch collection directories that already exist; new ones are picked
	// up from directory-create events on the root.
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to list %s: %w", s.Root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = watcher.Add(filepath.Join(s.Root, entry.Name()))
		}
	}

	events := make(chan core.Event, 16)
	w := &watchWorker{
		store:     s,
		pattern:   pattern,
		watcher:   watcher,
		events:    events,
		debouncer: newDebouncer(debounceDelay),
	}

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watcher terminated", "error", err)
	}))

	return events, nil
}

type watchWorker struct {
	store     *Store
	pattern   string
	watcher   *fsnotify.Watcher
	events    chan core.Event
	debouncer *debouncer
}

// run is the watcher event loop. It exits when ctx is done or the underlying
// watcher channels close.
func (w *watchWorker) run(ctx context.Context) error {
	defer func() {
		w.debouncer.stop()
		_ = w.watcher.Close()
		close(w.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.store.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	// A freshly created collection directory needs its own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}

	collection, id, ok := w.resolve(event.Name)
	if !ok {
		return
	}

	eventType := mapEventType(event)
	if eventType == "" {
		return
	}

	w.store.logger.Debug("change detected", "collection", collection, "id", id, "type", eventType)

	e := core.Event{
		Type:       eventType,
		Collection: collection,
		ID:         id,
		Timestamp:  time.Now().Unix(),
	}
	w.debouncer.add(collection+"/"+id, e, func(e core.Event) {
		defer func() {
			// The events channel closes during shutdown; a late timer must
			// not crash the process.
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// resolve maps an absolute file path to (collection, id). Paths outside the
// collection/document layout, temp files, and foreign extensions are ignored.
func (w *watchWorker) resolve(path string) (collection, id string, ok bool) {
	rel, err := filepath.Rel(w.store.Root, path)
	if err != nil {
		return "", "", false
	}
	rel = filepath.ToSlash(rel)

	parts := strings.SplitN(rel, "/", 2)
	if len(parts) != 2 || strings.Contains(parts[1], "/") {
		return "", "", false
	}

	name := parts[1]
	if !strings.HasSuffix(name, w.store.Extension) || strings.HasPrefix(name, TempFilePrefix) {
		return "", "", false
	}

	if matched, err := doublestar.Match(w.pattern, rel); err != nil || !matched {
		return "", "", false
	}

	return parts[0], strings.TrimSuffix(name, w.store.Extension), true
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}
