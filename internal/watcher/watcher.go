// Package watcher watches template import directories with fsnotify and hands
// settled files to an importer.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/clausekit/internal/config"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives import and removal events for matching files.
type Handler interface {
	ImportFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
}

// Watcher watches import directories and forwards settled changes to a Handler.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	ctx     context.Context
	pending map[string]*time.Timer
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher for cfg.Directories. Nothing is watched until Start.
func New(cfg config.WatchConfig, handler Handler, logger *zap.Logger, opts ...Option) *Watcher {
	roots := make([]string, 0, len(cfg.Directories))
	for _, d := range cfg.Directories {
		roots = append(roots, filepath.Clean(d))
	}
	w := &Watcher{
		roots:      roots,
		extensions: cfg.Extensions,
		recursive:  cfg.RecursiveOrDefault(),
		handler:    handler,
		debounce:   defaultDebounce,
		logger:     logger,
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. The watcher runs until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.mu.Lock()
	w.fsw = fsw
	w.ctx = ctx
	w.mu.Unlock()

	w.logger.Info("watching template import directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)

	w.wg.Add(1)
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			go w.Stop()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) && w.recursive {
				w.handleNewDirectory(fsw, path)
			}
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if matchExtension(path, w.extensions) {
			if err := w.handler.RemoveFile(w.context(), path); err != nil {
				w.logger.Warn("failed to remove imported template", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

// handleNewDirectory watches a directory moved or created under a root and imports
// what it already holds.
func (w *Watcher) handleNewDirectory(fsw *fsnotify.Watcher, dir string) {
	if err := w.addRoot(fsw, dir); err != nil {
		w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
		return
	}
	w.syncDirectory(w.context(), dir)
}

func (w *Watcher) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		ctx := w.ctx
		w.mu.Unlock()
		if stopped {
			return
		}
		w.importFile(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if err := w.handler.ImportFile(ctx, path); err != nil {
		w.logger.Warn("failed to import template", zap.String("path", path), zap.Error(err))
	}
}

// Sync imports every matching file already present under the roots.
func (w *Watcher) Sync(ctx context.Context) {
	for _, root := range w.roots {
		w.syncDirectory(ctx, root)
	}
}

func (w *Watcher) syncDirectory(ctx context.Context, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.importFile(ctx, path)
		}
		return ctx.Err()
	})
	if err != nil {
		w.logger.Warn("failed to sync import directory", zap.String("root", root), zap.Error(err))
	}
}

// Stop stops the watcher and drops pending imports. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		fsw := w.fsw
		w.mu.Unlock()
		if fsw != nil {
			_ = fsw.Close()
		}
		w.wg.Wait()
	})
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
