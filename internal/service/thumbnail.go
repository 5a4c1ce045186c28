package service

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/media/images"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// ThumbnailService attaches captured preview images to prompts. Bytes
// live on disk; the record only carries metadata.
type ThumbnailService struct {
	store     store.Store
	processor *images.Processor
	logger    *slog.Logger
}

// NewThumbnailService creates a new thumbnail service.
func NewThumbnailService(st store.Store, processor *images.Processor, logger *slog.Logger) *ThumbnailService {
	return &ThumbnailService{store: st, processor: processor, logger: logger}
}

// Capture stores the image and stamps the prompt with its metadata.
// data may be raw image bytes or a base64 data URI as sent by the
// panel's capture button.
func (s *ThumbnailService) Capture(ctx context.Context, promptID string, data []byte) (*domain.Prompt, error) {
	decoded, err := decodeCapture(data)
	if err != nil {
		return nil, err
	}

	// Make sure the prompt exists before writing bytes to disk.
	if _, err := s.store.GetPrompt(ctx, promptID); err != nil {
		return nil, err
	}

	info, err := s.processor.Process(promptID, decoded)
	if err != nil {
		return nil, err
	}

	p, err := s.store.MutatePrompt(ctx, promptID, func(p *domain.Prompt) error {
		p.Thumbnail = info
		return nil
	})
	if err != nil {
		// Keep disk and record consistent if the stamp failed.
		if cleanupErr := s.processor.Remove(promptID); cleanupErr != nil {
			s.logger.Warn("orphaned thumbnail left on disk", "prompt_id", promptID, "error", cleanupErr)
		}
		return nil, err
	}

	s.logger.Info("thumbnail captured", "prompt_id", promptID, "size", info.Size)
	return p, nil
}

// Get returns the stored thumbnail bytes for a prompt.
func (s *ThumbnailService) Get(ctx context.Context, promptID string) ([]byte, *domain.ThumbnailInfo, error) {
	p, err := s.store.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, nil, err
	}
	if p.Thumbnail == nil {
		return nil, nil, store.ErrNotFound.WithMessage("prompt has no thumbnail")
	}

	data, err := s.processor.Get(promptID)
	if err != nil {
		return nil, nil, store.ErrNotFound.WithMessage("thumbnail bytes missing").WithCause(err)
	}
	return data, p.Thumbnail, nil
}

// Remove deletes the thumbnail bytes and clears the record metadata.
func (s *ThumbnailService) Remove(ctx context.Context, promptID string) (*domain.Prompt, error) {
	p, err := s.store.MutatePrompt(ctx, promptID, func(p *domain.Prompt) error {
		p.Thumbnail = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.processor.Remove(promptID); err != nil {
		s.logger.Warn("failed to remove thumbnail bytes", "prompt_id", promptID, "error", err)
	}
	return p, nil
}

// decodeCapture accepts raw bytes, bare base64, or a data URI.
func decodeCapture(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("thumbnail data is required")
	}

	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, domainerrors.InvalidFormat("malformed data URI")
		}
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, domainerrors.InvalidFormat("malformed base64 thumbnail").WithCause(err)
		}
		return decoded, nil
	}

	// Heuristic: valid base64 of meaningful length decodes; anything
	// else is treated as raw image bytes.
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && len(decoded) > 8 {
		return decoded, nil
	}
	return data, nil
}
