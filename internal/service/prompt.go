// Package service contains the application services that sit between
// the HTTP handlers and the store: prompt CRUD, submission
// classification, snapshot import/export, taxonomy, and thumbnails.
package service

import (
	"context"
	"log/slog"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/validation"
)

// PromptService orchestrates prompt record operations.
type PromptService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewPromptService creates a new prompt service.
func NewPromptService(st store.Store, logger *slog.Logger) *PromptService {
	return &PromptService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateRequest contains fields for creating a prompt directly,
// bypassing submission classification.
type CreateRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Model    string `json:"model"`
	Tags     string `json:"tags"` // comma-joined
	Notes    string `json:"notes"`
	Rating   int    `json:"rating" validate:"gte=0,lte=5"`
}

// Create stores a new prompt with a fresh id.
func (s *PromptService) Create(ctx context.Context, req CreateRequest) (*domain.Prompt, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	p := &domain.Prompt{
		Text:     req.Text,
		Category: req.Category,
		Model:    req.Model,
		Tags:     domain.SplitTags(req.Tags),
		Notes:    req.Notes,
		Rating:   req.Rating,
	}
	promptID, err := id.Generate("prompt")
	if err != nil {
		return nil, err
	}
	p.ID = promptID
	p.InitTimestamps()

	if err := s.store.CreatePrompt(ctx, p); err != nil {
		return nil, err
	}
	if err := s.ensureLabels(ctx, p.Category, p.Model); err != nil {
		s.logger.Warn("failed to register labels for new prompt", "prompt_id", p.ID, "error", err)
	}

	s.logger.Info("prompt created", "prompt_id", p.ID)
	return p, nil
}

// UpdateRequest contains the partially updatable prompt fields. Nil
// pointers leave the stored value untouched.
type UpdateRequest struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
	Model    *string `json:"model"`
	Tags     *string `json:"tags"` // comma-joined
	Notes    *string `json:"notes"`
}

// Update applies a partial update to a prompt.
func (s *PromptService) Update(ctx context.Context, promptID string, req UpdateRequest) (*domain.Prompt, error) {
	p, err := s.store.MutatePrompt(ctx, promptID, func(p *domain.Prompt) error {
		if req.Text != nil {
			p.Text = *req.Text
		}
		if req.Category != nil {
			p.Category = *req.Category
		}
		if req.Model != nil {
			p.Model = *req.Model
		}
		if req.Tags != nil {
			p.Tags = domain.SplitTags(*req.Tags)
		}
		if req.Notes != nil {
			p.Notes = *req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.ensureLabels(ctx, p.Category, p.Model); err != nil {
		s.logger.Warn("failed to register labels for updated prompt", "prompt_id", p.ID, "error", err)
	}
	return p, nil
}

// Rate applies the toggle rule: rating an already-set value resets to
// unrated, any other valid value is stored as given.
func (s *PromptService) Rate(ctx context.Context, promptID string, rating int) (*domain.Prompt, error) {
	if !domain.ValidRating(rating) {
		return nil, domainerrors.Validationf("rating %d out of range %d-%d", rating, domain.MinRating, domain.MaxRating)
	}

	return s.store.MutatePrompt(ctx, promptID, func(p *domain.Prompt) error {
		if p.Rating == rating {
			p.Rating = domain.MinRating
		} else {
			p.Rating = rating
		}
		return nil
	})
}

// MarkUsed increments a prompt's use counter.
func (s *PromptService) MarkUsed(ctx context.Context, promptID string) (*domain.Prompt, error) {
	return s.store.MutatePrompt(ctx, promptID, func(p *domain.Prompt) error {
		p.UsedCount++
		return nil
	})
}

// Get returns a single prompt.
func (s *PromptService) Get(ctx context.Context, promptID string) (*domain.Prompt, error) {
	return s.store.GetPrompt(ctx, promptID)
}

// Delete removes a prompt. The store clears any saver state that
// referenced it.
func (s *PromptService) Delete(ctx context.Context, promptID string) error {
	if err := s.store.DeletePrompt(ctx, promptID); err != nil {
		return err
	}
	s.logger.Info("prompt deleted", "prompt_id", promptID)
	return nil
}

// List returns prompts matching the filter.
func (s *PromptService) List(ctx context.Context, filter store.ListFilter) ([]*domain.Prompt, error) {
	return s.store.ListPrompts(ctx, filter)
}

// Stats returns the library counters.
func (s *PromptService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}

// ensureLabels registers non-empty category and model labels so the
// selection lists stay in sync with values actually written.
func (s *PromptService) ensureLabels(ctx context.Context, category, model string) error {
	if category != "" && category != store.FilterAll {
		if err := s.store.AddCategory(ctx, category); err != nil {
			return err
		}
	}
	if model != "" && model != store.FilterAll {
		if err := s.store.AddModel(ctx, model); err != nil {
			return err
		}
	}
	return nil
}
