package providers

import (
	"github.com/samber/do/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/config"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/logger"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/media/images"
)

// ProvideImageStorage provides thumbnail file storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Storage.ThumbnailPath())
	if err != nil {
		return nil, err
	}

	log.Info("Thumbnail storage initialized", "path", cfg.Storage.ThumbnailPath())

	return storage, nil
}

// ProvideImageProcessor provides the thumbnail processor.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, log.Logger), nil
}
