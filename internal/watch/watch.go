// Package watch monitors a drop directory for snapshot files and feeds
// them to the importer. Copying a JSON export into the directory is all
// a user has to do to merge another machine's library.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

// Importer merges one snapshot file into the store.
type Importer interface {
	ImportFile(ctx context.Context, path string) (*domain.ImportResult, error)
}

// Suffixes appended to processed files so they are not picked up again.
const (
	doneSuffix   = ".imported"
	failedSuffix = ".failed"
)

// defaultSettle is how long a file must stay quiet before it is
// considered fully written. Copies from network shares arrive in bursts
// of partial writes.
const defaultSettle = 500 * time.Millisecond

// Watcher monitors a single drop directory for snapshot files.
type Watcher struct {
	dir      string
	importer Importer
	logger   *slog.Logger
	settle   time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer

	wg sync.WaitGroup
}

// New creates a watcher for dir. The directory is created if missing.
func New(dir string, importer Importer, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch drop directory: %w", err)
	}

	return &Watcher{
		dir:      dir,
		importer: importer,
		logger:   logger,
		settle:   defaultSettle,
		watcher:  fsw,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Start processes events until ctx is cancelled. Files already sitting
// in the directory at startup are imported first.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("drop directory watcher started", "dir", w.dir)

	w.sweepExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.drainTimers()
			w.wg.Wait()
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// sweepExisting imports snapshot files that predate the watcher.
func (w *Watcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("failed to read drop directory", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !eligible(path) {
			continue
		}
		w.importOne(ctx, path)
	}
}

// schedule arms (or re-arms) the settle timer for a path. The import
// runs only after writes stop for the settle window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !eligible(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.wg.Add(1)
		defer w.wg.Done()
		w.importOne(ctx, path)
	})
}

// importOne merges a single file and renames it out of the way.
func (w *Watcher) importOne(ctx context.Context, path string) {
	result, err := w.importer.ImportFile(ctx, path)
	if err != nil {
		w.logger.Error("drop import failed", "file", filepath.Base(path), "error", err)
		w.markProcessed(path, failedSuffix)
		return
	}

	w.logger.Info("drop import completed",
		"file", filepath.Base(path),
		"added", result.Added,
		"updated", result.Updated,
		"skipped", result.Skipped)
	w.markProcessed(path, doneSuffix)
}

func (w *Watcher) markProcessed(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.Warn("failed to rename processed file", "file", filepath.Base(path), "error", err)
	}
}

func (w *Watcher) drainTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// eligible reports whether path looks like an unprocessed snapshot file.
func eligible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".json")
}
