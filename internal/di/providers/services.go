package providers

import (
	"github.com/samber/do/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/config"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/logger"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/media/images"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
)

// ProvidePromptService provides prompt CRUD and statistics.
func ProvidePromptService(i do.Injector) (*service.PromptService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPromptService(storeHandle.Store, log.Logger), nil
}

// ProvideSaverService provides submission classification.
func ProvideSaverService(i do.Injector) (*service.SaverService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSaverService(storeHandle.Store, log.Logger, cfg.Detector.Threshold), nil
}

// ProvideTaxonomyService provides category, model, and tag management.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaxonomyService(storeHandle.Store, log.Logger), nil
}

// ProvideImportService provides snapshot import and export.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImportService(storeHandle.Store, log.Logger), nil
}

// ProvideThumbnailService provides thumbnail capture and retrieval.
func ProvideThumbnailService(i do.Injector) (*service.ThumbnailService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewThumbnailService(storeHandle.Store, processor, log.Logger), nil
}
