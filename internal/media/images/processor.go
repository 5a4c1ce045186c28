package images

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
)

// MaxThumbnailBytes bounds accepted capture uploads. Thumbnails are
// small preview images, not full renders.
const MaxThumbnailBytes = 4 << 20

// Processor validates captured thumbnail bytes, stores them, and
// produces the metadata carried on the prompt record.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{storage: storage, logger: logger}
}

// Process decodes, stores, and fingerprints a captured thumbnail.
func (p *Processor) Process(promptID string, data []byte) (*domain.ThumbnailInfo, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("thumbnail data is empty")
	}
	if len(data) > MaxThumbnailBytes {
		return nil, domainerrors.Validationf("thumbnail exceeds %d bytes", MaxThumbnailBytes)
	}

	// Reject anything that is not a decodable image up front.
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, domainerrors.InvalidFormat("thumbnail is not a valid image").WithCause(err)
	}

	blurHash, err := ComputeBlurHash(data)
	if err != nil {
		// The placeholder is nice to have, not load-bearing.
		p.logger.Warn("blurhash computation failed", "prompt_id", promptID, "error", err)
		blurHash = ""
	}

	if err := p.storage.Save(promptID, data); err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	sum := sha256.Sum256(data)
	info := &domain.ThumbnailInfo{
		Hash:       fmt.Sprintf("%x", sum),
		BlurHash:   blurHash,
		Size:       int64(len(data)),
		CapturedAt: time.Now().UTC(),
	}

	p.logger.Debug("thumbnail stored",
		"prompt_id", promptID, "size", info.Size, "hash", info.Hash[:8])
	return info, nil
}

// Remove deletes the stored bytes for a prompt's thumbnail.
func (p *Processor) Remove(promptID string) error {
	return p.storage.Delete(promptID)
}

// Get returns the stored thumbnail bytes.
func (p *Processor) Get(promptID string) ([]byte, error) {
	return p.storage.Get(promptID)
}
