package fsdir

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
)

// DefaultDebounce is how long changes accumulate before they are applied.
const DefaultDebounce = 500 * time.Millisecond

// Target applies document changes. *ingest.Ingester implements it.
type Target interface {
	Ingest(ctx context.Context, name string) (registry.Change, error)
	Forget(name string) (string, bool)
}

// Watcher feeds filesystem changes under a Source root into a Target.
// Writes are debounced; a document that no longer exists is forgotten.
type Watcher struct {
	source   *Source
	target   Target
	debounce time.Duration
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce delay. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher and registers every directory below the root.
// Hidden directories are skipped.
func NewWatcher(source *Source, target Target, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		source:   source,
		target:   target,
		debounce: DefaultDebounce,
		logger:   logger.Discard(),
		fsw:      fsw,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.Component("fsdir"))

	if err := w.addRecursive(source.Root(), false); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start processes events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watching constraint documents",
		slog.String("root", w.source.Root()),
		slog.String("pattern", w.source.pattern),
		logger.Duration(w.debounce),
	)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", logger.Error(err))
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Run returns Start as a function for errgroup.Go.
func (w *Watcher) Run(ctx context.Context) func() error {
	return func() error {
		return w.Start(ctx)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Flush applies the accumulated changes now. Start calls it every debounce period.
func (w *Watcher) Flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	names := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(w.source.Root(), filepath.FromSlash(name))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if id, evicted := w.target.Forget(name); evicted {
				w.logger.Info("document deleted", logger.Source(name), logger.Dataset(id))
			}
			continue
		}
		if _, err := w.target.Ingest(ctx, name); err != nil {
			w.logger.Warn("document change rejected", logger.Source(name), logger.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// Files created or moved in with the directory produce no events of their own.
			if err := w.addRecursive(ev.Name, true); err != nil {
				w.logger.Warn("failed to watch new directory", slog.String("path", ev.Name), logger.Error(err))
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	if name, ok := w.enqueue(ev.Name); ok {
		w.logger.Debug("document change detected", logger.Source(name), slog.String("op", ev.Op.String()))
	}
}

// enqueue marks the document at path as pending if it matches the source pattern.
func (w *Watcher) enqueue(path string) (string, bool) {
	name, ok := w.source.Name(path)
	if !ok || !w.source.Match(name) {
		return "", false
	}
	w.mu.Lock()
	w.pending[name] = struct{}{}
	w.mu.Unlock()
	return name, true
}

// addRecursive watches root and every non-hidden directory below it. With
// queue set, matching documents found on the way are marked pending.
func (w *Watcher) addRecursive(root string, queue bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if !queue {
				return nil
			}
			if name, ok := w.enqueue(path); ok {
				w.logger.Debug("document found in new directory", logger.Source(name))
			}
			return nil
		}
		if base := d.Name(); path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", slog.String("path", path), logger.Error(err))
		}
		return nil
	})
}
