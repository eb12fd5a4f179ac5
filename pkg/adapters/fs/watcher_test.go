package fs

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

func TestResolveEventPaths(t *testing.T) {
	s := newTestStore(t)
	w := &watchWorker{store: s, pattern: "**"}

	collection, id, ok := w.resolve(s.filename("posts", "p1"))
	require.True(t, ok)
	assert.Equal(t, "posts", collection)
	assert.Equal(t, "p1", id)

	// Temp files, foreign extensions, root-level and nested paths are ignored.
	_, _, ok = w.resolve(s.Dir("posts") + "/" + TempFilePrefix + "x.yml")
	assert.False(t, ok)
	_, _, ok = w.resolve(s.Dir("posts") + "/readme.txt")
	assert.False(t, ok)
	_, _, ok = w.resolve(s.Root + "/stray.yml")
	assert.False(t, ok)
	_, _, ok = w.resolve(s.Dir("posts") + "/deep/file.yml")
	assert.False(t, ok)
}

func TestResolveHonorsPattern(t *testing.T) {
	s := newTestStore(t)
	w := &watchWorker{store: s, pattern: "posts/**"}

	_, _, ok := w.resolve(s.filename("posts", "p1"))
	assert.True(t, ok)

	_, _, ok = w.resolve(s.filename("drafts", "d1"))
	assert.False(t, ok)
}

func TestMapEventType(t *testing.T) {
	assert.Equal(t, core.EventCreate, mapEventType(fsnotify.Event{Op: fsnotify.Create}))
	assert.Equal(t, core.EventModify, mapEventType(fsnotify.Event{Op: fsnotify.Write}))
	assert.Equal(t, core.EventDelete, mapEventType(fsnotify.Event{Op: fsnotify.Remove}))
	assert.Equal(t, core.EventDelete, mapEventType(fsnotify.Event{Op: fsnotify.Rename}))
	assert.Equal(t, core.EventType(""), mapEventType(fsnotify.Event{Op: fsnotify.Chmod}))
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var got []core.Event
	emit := func(e core.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}

	for i := 0; i < 5; i++ {
		d.add("posts/p1", core.Event{Type: core.EventModify, Collection: "posts", ID: "p1"}, emit)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.add("k", core.Event{}, func(core.Event) { fired <- struct{}{} })
	d.stop()

	select {
	case <-fired:
		t.Fatal("event fired after stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchEmitsExternalChange(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, os.MkdirAll(s.Dir("posts"), 0o755))

	events, err := s.Watch(ctx, "")
	require.NoError(t, err)

	// Give the watcher loop a moment to come up before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(s.filename("posts", "p1"), []byte("a: 1\n"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, "posts", e.Collection)
		assert.Equal(t, "p1", e.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWatchRejectsInvalidPattern(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Watch(context.Background(), "[unclosed")
	assert.Error(t, err)
}
