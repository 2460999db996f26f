// Package watch reloads the board when its data file changes on disk,
// for example after a git pull or a manual edit.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/apex/pkg/logger"
)

const (
	defaultDebounce = 500 * time.Millisecond
	tickInterval    = 100 * time.Millisecond
)

// Reloader re-reads persisted state.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Option applies a configuration option to the Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the watcher.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher follows one file through its parent directory, so editors and
// tools that replace the file by rename are seen too.
type Watcher struct {
	path     string
	target   Reloader
	debounce time.Duration
	logger   logger.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for path that calls target.Reload.
func New(path string, target Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		debounce: defaultDebounce,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.watcher = fw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run(ctx)

	w.logger.Info(ctx, "watching data file", logger.String("path", w.path))
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fw.Close(); err != nil {
		w.logger.Warn(context.Background(), "error closing file watcher", logger.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "file watcher error", logger.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	changed, err := w.target.Reload(ctx)
	if err != nil {
		w.logger.Error(ctx, "reload after file change failed", logger.Error(err))
		return
	}
	if changed {
		w.logger.Info(ctx, "data file changed on disk, board reloaded")
	}
}
