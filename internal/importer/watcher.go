package importer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/tags"
)

// Watcher imports music files dropped into a folder. Files created or
// written within one debounce window are imported as a single batch.
type Watcher struct {
	importer *Importer
	dir      string
	debounce time.Duration
	logger   *zap.Logger

	// OnImport is called after every batch, successful or not.
	OnImport func(*Report, error)

	mu      sync.Mutex
	pending map[string]bool
}

// NewWatcher returns a watcher for dir.
func NewWatcher(im *Importer, dir string, debounce time.Duration) *Watcher {
	return &Watcher{
		importer: im,
		dir:      dir,
		debounce: debounce,
		logger:   im.logger.Named("watcher"),
		pending:  make(map[string]bool),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching", zap.String("dir", w.dir))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !tags.IsMusicFile(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = true
			w.mu.Unlock()
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// flush imports every pending file as one batch.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	report, err := w.importer.ImportPaths(ctx, paths)
	if err != nil {
		w.logger.Error("watch import failed", zap.Int("files", len(paths)), zap.Error(err))
	} else {
		w.logger.Info("watch import", zap.String("summary", report.String()))
	}
	if w.OnImport != nil {
		w.OnImport(report, err)
	}
}
