package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/specflow/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce is the minimum interval between progress emissions.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-parses a task list whenever it changes and emits fresh
// progress. Editors replace files on save, so the parent directory is
// watched and events are filtered to the task file's name.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *logging.Logger
	updates chan Progress
	stop    chan struct{}
}

// NewWatcher creates a watcher for the task list at path. Event bursts
// are coalesced so progress is emitted at most once per debounce interval.
func NewWatcher(path string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("task list path is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		path:    path,
		watcher: fw,
		limiter: rate.NewLimiter(rate.Every(debounce), 1),
		logger:  logger,
		updates: make(chan Progress, 10),
		stop:    make(chan struct{}),
	}, nil
}

// Start begins watching and emits the initial progress. Call Stop to
// clean up resources.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.emit(ctx)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// Updates returns the channel of progress emissions.
func (w *Watcher) Updates() <-chan Progress {
	return w.updates
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			w.drain()
			w.emit(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "task watcher error", zap.Error(err))
		}
	}
}

// relevant reports whether the event concerns the watched task file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// drain discards events queued during the debounce wait so a burst of
// writes produces one emission.
func (w *Watcher) drain() {
	for {
		select {
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// emit parses the task list and sends progress without blocking. A
// mid-rename read failure is skipped; the next event retries.
func (w *Watcher) emit(ctx context.Context) {
	items, err := ParseFile(w.path)
	if err != nil {
		w.logger.Debug(ctx, "task list unreadable, skipping emission", zap.Error(err))
		return
	}

	select {
	case w.updates <- ComputeProgress(items):
	default:
	}
}
