package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/config"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/logger"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/watch"
)

// SnapshotWatcherHandle wraps the drop directory watcher with shutdown capability.
type SnapshotWatcherHandle struct {
	*watch.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SnapshotWatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideSnapshotWatcher provides the snapshot drop directory watcher.
// A watcher is only started when an import watch path is configured.
func ProvideSnapshotWatcher(i do.Injector) (*SnapshotWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Import.WatchPath == "" {
		log.Info("Snapshot watcher disabled, no import watch path configured")
		return &SnapshotWatcherHandle{}, nil
	}

	importService := do.MustInvoke[*service.ImportService](i)

	w, err := watch.New(cfg.Import.WatchPath, importService, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Snapshot watcher error", "error", err)
		}
	}()

	log.Info("Snapshot watcher started", "dir", cfg.Import.WatchPath)

	return &SnapshotWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}

// JanitorHandle wraps the cleanup job with shutdown capability.
type JanitorHandle struct {
	*service.Janitor
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *JanitorHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideJanitor provides the periodic cleanup of stale unrated prompts.
func ProvideJanitor(i do.Injector) (*JanitorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Janitor.Enabled {
		log.Info("Janitor disabled by configuration")
		return &JanitorHandle{}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	j := service.NewJanitor(storeHandle.Store, log.Logger, cfg.Janitor.MaxAge, cfg.Janitor.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	go j.Run(ctx)

	log.Info("Janitor started",
		"max_age", cfg.Janitor.MaxAge,
		"interval", cfg.Janitor.Interval,
	)

	return &JanitorHandle{
		Janitor: j,
		cancel:  cancel,
	}, nil
}
