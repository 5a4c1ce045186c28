// Package di provides dependency injection configuration for the prompt server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/config"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/di/providers"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/logger"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/media/images"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideImageStorage)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Business services
	do.Provide(injector, providers.ProvidePromptService)
	do.Provide(injector, providers.ProvideSaverService)
	do.Provide(injector, providers.ProvideTaxonomyService)
	do.Provide(injector, providers.ProvideImportService)
	do.Provide(injector, providers.ProvideThumbnailService)

	// Workers
	do.Provide(injector, providers.ProvideSnapshotWatcher)
	do.Provide(injector, providers.ProvideJanitor)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap triggers lazy initialization of every service the server
// needs at startup.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Processor](injector)

	_ = do.MustInvoke[*service.PromptService](injector)
	_ = do.MustInvoke[*service.SaverService](injector)
	_ = do.MustInvoke[*service.TaxonomyService](injector)
	_ = do.MustInvoke[*service.ImportService](injector)
	_ = do.MustInvoke[*service.ThumbnailService](injector)

	_ = do.MustInvoke[*providers.SnapshotWatcherHandle](injector)
	_ = do.MustInvoke[*providers.JanitorHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
