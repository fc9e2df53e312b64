// Package watch notifies when prompt files change on disk so registrations can
// be reconciled with edits made outside the tool surface.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher watches prompt directories and calls onChange once per burst of
// .json create/write/remove/rename events.
type Watcher struct {
	mu       sync.Mutex
	dirs     []string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before onChange runs. Default 250ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for dirs. Empty entries are ignored.
func New(dirs []string, onChange func(ctx context.Context), opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch: onChange must not be nil")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		debounce: defaultDebounce,
		onChange: onChange,
		logger:   zap.NewNop(),
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, d := range dirs {
		if d != "" {
			w.dirs = append(w.dirs, d)
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start creates missing directories, registers them, and begins watching in a goroutine.
// Calling Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watch: create %q: %w", dir, err)
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch: add %q: %w", dir, err)
		}
		w.logger.Debug("watching prompt directory", zap.String("dir", dir))
	}
	w.running = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop, waits for it to exit, and releases the underlying watcher.
// Safe to call more than once and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	select {
	case <-w.stopCh:
		w.mu.Unlock()
		return
	default:
		close(w.stopCh)
	}
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("prompt file event", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.onChange(ctx)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	_, ok := promptreg.IDFromFileName(filepath.Base(ev.Name))
	return ok
}
