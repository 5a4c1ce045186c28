package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/config"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/logger"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/sse"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
	badgerstore "github.com/danieljanata/ComfyUI-Prompting-System/internal/store/badger"
	sqlitestore "github.com/danieljanata/ComfyUI-Prompting-System/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the persistence layer for the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	dbPath := cfg.Storage.DatabasePath()

	var (
		db  store.Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err = sqlitestore.Open(dbPath, log.Logger, sseHandle.Manager)
	case config.BackendBadger:
		db, err = badgerstore.Open(dbPath, log.Logger, sseHandle.Manager)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
