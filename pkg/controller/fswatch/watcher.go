package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/interfaces"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/m-mizutani/spock/pkg/utils/errutil"
)

// DefaultDebounce is the quiet window a file must stay unchanged for before
// its event is handled. Create and the Writes that follow it are coalesced
// into one event.
const DefaultDebounce = 200 * time.Millisecond

type root struct {
	dir  string
	kind model.EntityKind
}

// Watcher turns file changes under the content, users and assets directories
// into CMS events. Events are handled one at a time.
type Watcher struct {
	eventUC  interfaces.EventUseCase
	roots    []root
	patterns []string
	debounce time.Duration

	watcher *fsnotify.Watcher
	pending map[string]*pendingEvent
	fired   chan firedTimer
	done    chan struct{}
	gen     uint64
}

// pendingEvent is the latest event of a path still inside its quiet window
type pendingEvent struct {
	event *model.Event
	timer *time.Timer
	gen   uint64
}

type firedTimer struct {
	path string
	gen  uint64
}

// Option configures Watcher
type Option func(*Watcher)

// WithContentDir watches dir for published content
func WithContentDir(dir string) Option {
	return withRoot(dir, model.EntityKindContent)
}

// WithUsersDir watches dir for published user records
func WithUsersDir(dir string) Option {
	return withRoot(dir, model.EntityKindUser)
}

// WithAssetsDir watches dir for uploaded assets
func WithAssetsDir(dir string) Option {
	return withRoot(dir, model.EntityKindAsset)
}

// WithPatterns restricts events to files matching any of the globs, relative
// to the watched directory. `**` matches across directories.
func WithPatterns(patterns ...string) Option {
	return func(w *Watcher) {
		w.patterns = patterns
	}
}

// WithDebounce sets the window in which repeated events for a file are dropped
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func withRoot(dir string, kind model.EntityKind) Option {
	return func(w *Watcher) {
		if dir != "" {
			w.roots = append(w.roots, root{dir: filepath.Clean(dir), kind: kind})
		}
	}
}

// New creates a Watcher
func New(eventUC interfaces.EventUseCase, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		eventUC:  eventUC,
		patterns: []string{"**/*"},
		debounce: DefaultDebounce,
		pending:  map[string]*pendingEvent{},
	}
	for _, opt := range opts {
		opt(w)
	}

	if len(w.roots) == 0 {
		return nil, goerr.New("no directory to watch")
	}
	for i, r := range w.roots {
		abs, err := filepath.Abs(r.dir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve watch directory", goerr.V("dir", r.dir))
		}
		w.roots[i].dir = abs
	}
	for _, p := range w.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, goerr.New("invalid watch pattern", goerr.V("pattern", p))
		}
	}

	return w, nil
}

// Open creates the underlying fsnotify watcher and registers every directory
// below the roots
func (w *Watcher) Open() error {
	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create watcher")
	}

	for _, r := range w.roots {
		if err := addRecursive(watcher, r.dir); err != nil {
			_ = watcher.Close()
			return err
		}
	}

	w.watcher = watcher
	return nil
}

// Close releases the fsnotify watcher
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

// Run handles file events until ctx is cancelled. Events still inside their
// quiet window when ctx is cancelled are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Open(); err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	w.fired = make(chan firedTimer, 64)
	w.done = make(chan struct{})
	defer w.stopPending(ctx)

	logger := ctxlog.From(ctx)
	for _, r := range w.roots {
		logger.Info("Watching directory", "dir", r.dir, "kind", r.kind)
	}

	events, errs := w.watcher.Events, w.watcher.Errors
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.observe(ctx, ev)

		case f := <-w.fired:
			w.flush(ctx, f)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("Filesystem watcher error", "error", err)
		}
	}
}

func (w *Watcher) observe(ctx context.Context, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !isHidden(filepath.Base(ev.Name)) {
				if err := addRecursive(w.watcher, ev.Name); err != nil {
					ctxlog.From(ctx).Warn("Failed to watch new directory", "dir", ev.Name, "error", err)
				}
			}
			return
		}
	}

	if event := w.eventFor(ev.Name, ev.Op); event != nil {
		w.schedule(ev.Name, event)
	}
}

// schedule replaces the pending event of path and restarts its quiet window
func (w *Watcher) schedule(path string, event *model.Event) {
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}

	w.gen++
	f := firedTimer{path: path, gen: w.gen}
	fired, done := w.fired, w.done
	w.pending[path] = &pendingEvent{
		event: event,
		gen:   f.gen,
		timer: time.AfterFunc(w.debounce, func() {
			select {
			case fired <- f:
			case <-done:
			}
		}),
	}
}

// flush handles the pending event of a path whose quiet window elapsed. A
// timer superseded by a later change of the same path is ignored.
func (w *Watcher) flush(ctx context.Context, f firedTimer) {
	p, ok := w.pending[f.path]
	if !ok || p.gen != f.gen {
		return
	}
	delete(w.pending, f.path)

	p.event.ReceivedAt = time.Now()
	w.handle(ctx, p.event)
}

func (w *Watcher) stopPending(ctx context.Context) {
	close(w.done)
	for path, p := range w.pending {
		p.timer.Stop()
		ctxlog.From(ctx).Info("Dropped pending file change on shutdown", "path", path)
	}
	clear(w.pending)
}

func (w *Watcher) handle(ctx context.Context, event *model.Event) {
	logger := ctxlog.From(ctx)
	logger.Info("File change detected",
		"id", event.ID,
		"type", event.Type,
		"kind", event.Entity.Kind(),
	)

	if err := w.eventUC.HandleEvent(ctx, event); err != nil {
		errutil.Handle(ctx, "Failed to handle filesystem event", err)
	}
}

// eventFor maps a file operation to an event, or nil when the change is not
// relevant
func (w *Watcher) eventFor(path string, op fsnotify.Op) *model.Event {
	r, rel, ok := w.locate(path)
	if !ok || !w.matches(rel) {
		return nil
	}

	if !op.Has(fsnotify.Create) && !op.Has(fsnotify.Write) {
		return nil
	}

	event := &model.Event{
		ID:         uuid.NewString(),
		Type:       model.EventTypePublished,
		ReceivedAt: time.Now(),
	}
	switch r.kind {
	case model.EntityKindAsset:
		event.Type = model.EventTypeAssetUploaded
		event.Entity = &model.AssetEntity{ResolvedPath: path, Data: fileData(rel)}
	case model.EntityKindUser:
		event.Entity = &model.UserEntity{Path: rel, Data: fileData(rel)}
	default:
		event.Entity = &model.ContentEntity{Path: rel, Data: fileData(rel)}
	}
	return event
}

// locate finds the deepest root containing path and the slash-separated path
// relative to it
func (w *Watcher) locate(path string) (root, string, bool) {
	var (
		best    root
		bestRel string
		found   bool
	)

	for _, r := range w.roots {
		rel, err := filepath.Rel(r.dir, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if found && len(r.dir) <= len(best.dir) {
			continue
		}
		best, bestRel, found = r, filepath.ToSlash(rel), true
	}

	if !found {
		return root{}, "", false
	}
	for _, seg := range strings.Split(bestRel, "/") {
		if isHidden(seg) {
			return root{}, "", false
		}
	}
	return best, bestRel, true
}

func (w *Watcher) matches(rel string) bool {
	for _, p := range w.patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func fileData(rel string) map[string]any {
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	return map[string]any{
		"path":      rel,
		"basename":  base,
		"filename":  strings.TrimSuffix(base, ext),
		"extension": strings.TrimPrefix(ext, "."),
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk watch directory", goerr.V("path", path))
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return goerr.Wrap(err, "failed to watch directory", goerr.V("path", path))
		}
		return nil
	})
}
