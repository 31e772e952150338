package fswatch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

func (w *Watcher) EventFor(path string, op fsnotify.Op) *model.Event {
	return w.eventFor(path, op)
}

// Prepare sets up timer channels without starting the event loop
func (w *Watcher) Prepare() {
	w.fired = make(chan firedTimer, 64)
	w.done = make(chan struct{})
}

func (w *Watcher) Observe(ctx context.Context, path string, op fsnotify.Op) {
	w.observe(ctx, fsnotify.Event{Name: path, Op: op})
}

// FlushNext handles the next elapsed quiet window, if one arrives in time
func (w *Watcher) FlushNext(ctx context.Context, timeout time.Duration) bool {
	select {
	case f := <-w.fired:
		w.flush(ctx, f)
		return true
	case <-time.After(timeout):
		return false
	}
}

func (w *Watcher) PendingCount() int {
	return len(w.pending)
}
