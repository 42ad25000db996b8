package dataset

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Watcher polls a source file and reloads the store when its size or
// modification time changes.
type Watcher struct {
	store    *Store
	path     string
	logger   *slog.Logger
	interval time.Duration

	modTime time.Time
	size    int64
}

// NewWatcher creates a Watcher that checks path every interval.
func NewWatcher(store *Store, path string, logger *slog.Logger, interval time.Duration) *Watcher {
	return &Watcher{store: store, path: path, logger: logger, interval: interval}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.Check()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check stats the file and reloads it if it changed since the last check.
// It reports whether a new snapshot was swapped in.
func (w *Watcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Warn("source file unavailable", "path", w.path, "error", err)
		return false
	}
	if info.ModTime().Equal(w.modTime) && info.Size() == w.size {
		return false
	}
	w.modTime, w.size = info.ModTime(), info.Size()

	_, changed, err := w.store.LoadFile(w.path, false)
	if err != nil {
		return false
	}
	if changed {
		w.logger.Info("source file changed, dataset reloaded", "path", w.path)
	}
	return changed
}
