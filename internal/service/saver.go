package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/similarity"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/validation"
)

// SaverService classifies text submissions from authoring points. A
// submission either continues the saver's previous prompt (the text is
// similar enough to be an edit) or starts a new record.
type SaverService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
	threshold float64

	// Per-saver locks keep the read-decide-write sequence atomic for
	// concurrent submissions from the same saver. Different savers
	// never contend.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSaverService creates a new saver service. threshold is the
// similarity score at or above which a submission counts as a
// continuation; pass 0 to use the default.
func NewSaverService(st store.Store, logger *slog.Logger, threshold float64) *SaverService {
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &SaverService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
		threshold: threshold,
		locks:     make(map[string]*sync.Mutex),
	}
}

// SubmitRequest is one text submission from a saver. Empty text is
// valid; the detector does not judge prompt content.
type SubmitRequest struct {
	SaverID  string `json:"saver_id" validate:"required"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Model    string `json:"model"`
	Tags     string `json:"tags"` // comma-joined
}

// SubmitResult is the outcome of a classified submission.
type SubmitResult struct {
	Prompt         *domain.Prompt
	Classification domain.Classification
	Score          float64
}

// Submit classifies the submission and applies it: continuation
// rewrites the previous prompt's text, new creates a fresh record.
// Either way the saver's state is refreshed to point at the result.
func (s *SaverService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unlock := s.lockSaver(req.SaverID)
	defer unlock()

	state, err := s.store.GetSaverState(ctx, req.SaverID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		state = nil
	case err != nil:
		return nil, err
	}

	if state != nil && state.LastPromptID != "" {
		score := similarity.Score(req.Text, state.LastSavedText)
		if score >= s.threshold {
			result, err := s.continuePrompt(ctx, req, state, score)
			// The referenced prompt may have been deleted between the
			// state read and the write; fall through to a new record.
			if err == nil || !errors.Is(err, store.ErrNotFound) {
				return result, err
			}
		}
	}

	return s.newPrompt(ctx, req)
}

func (s *SaverService) continuePrompt(ctx context.Context, req SubmitRequest, state *domain.SaverState, score float64) (*SubmitResult, error) {
	p, err := s.store.MutatePrompt(ctx, state.LastPromptID, func(p *domain.Prompt) error {
		p.Text = req.Text
		return nil
	})
	if err != nil {
		return nil, err
	}

	state.LastSavedText = req.Text
	if err := s.store.PutSaverState(ctx, state); err != nil {
		return nil, err
	}

	s.logger.Debug("submission continued previous prompt",
		"saver_id", req.SaverID, "prompt_id", p.ID, "score", score)

	return &SubmitResult{
		Prompt:         p,
		Classification: domain.ClassificationContinuation,
		Score:          score,
	}, nil
}

func (s *SaverService) newPrompt(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	p := &domain.Prompt{
		Text:     req.Text,
		Category: req.Category,
		Model:    req.Model,
		Tags:     domain.SplitTags(req.Tags),
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

	if err := s.store.PutSaverState(ctx, &domain.SaverState{
		SaverID:       req.SaverID,
		LastSavedText: req.Text,
		LastPromptID:  p.ID,
	}); err != nil {
		return nil, err
	}

	if p.Category != "" {
		if err := s.store.AddCategory(ctx, p.Category); err != nil {
			s.logger.Warn("failed to register category", "name", p.Category, "error", err)
		}
	}
	if p.Model != "" {
		if err := s.store.AddModel(ctx, p.Model); err != nil {
			s.logger.Warn("failed to register model", "name", p.Model, "error", err)
		}
	}

	s.logger.Debug("submission created new prompt",
		"saver_id", req.SaverID, "prompt_id", p.ID)

	return &SubmitResult{
		Prompt:         p,
		Classification: domain.ClassificationNew,
	}, nil
}

// ResetForNew clears saver state so the next submission is classified
// as new regardless of similarity. An empty saverID clears all savers.
func (s *SaverService) ResetForNew(ctx context.Context, saverID string) error {
	if saverID == "" {
		s.logger.Info("all saver states reset")
		return s.store.DeleteAllSaverStates(ctx)
	}

	unlock := s.lockSaver(saverID)
	defer unlock()

	s.logger.Info("saver state reset", "saver_id", saverID)
	return s.store.DeleteSaverState(ctx, saverID)
}

// Threshold returns the configured continuation threshold.
func (s *SaverService) Threshold() float64 {
	return s.threshold
}

func (s *SaverService) lockSaver(saverID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[saverID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[saverID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
