package csvstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounceWindow batches rapid successive writes (editors often
// truncate then write) into one reload.
const defaultDebounceWindow = 250 * time.Millisecond

// Watcher reloads a Store when its table file changes on disk.
// It serves the read path only: the single-writer assumption for the
// table still holds, the watcher just lets one process pick up edits
// made by the catalog's maintainers outside of it.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// WatchTable starts watching the store's table file and reloading on
// change. Reload failures are logged, not fatal: the store keeps serving
// the last good load.
func WatchTable(store *Store, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: rename-over-write replaces the
	// inode and a file-level watch would silently die.
	dir := filepath.Dir(store.Path())
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		store:    store,
		watcher:  fsWatcher,
		logger:   logger,
		debounce: defaultDebounceWindow,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	target := filepath.Clean(w.store.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.store.Reload(context.Background()); err != nil {
				w.logger.Error("table reload after file change failed", "err", err)
			} else {
				w.logger.Info("table reloaded after file change", "path", target)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("table watcher error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.watcher.Close()
}
