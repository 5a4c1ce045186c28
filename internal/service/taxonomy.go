package service

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// TaxonomyService manages the open category and model label sets and
// the derived tag projection.
type TaxonomyService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService(st store.Store, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{store: st, logger: logger}
}

// ListCategories returns all category labels.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// AddCategory inserts a label and returns the updated set. Adding an
// existing label is a no-op.
func (s *TaxonomyService) AddCategory(ctx context.Context, name string) ([]string, error) {
	name, err := cleanLabel(name)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddCategory(ctx, name); err != nil {
		return nil, err
	}
	s.logger.Info("category added", "name", name)
	return s.store.ListCategories(ctx)
}

// RemoveCategory removes a label from the set only; prompts that
// reference it keep the orphaned value until edited.
func (s *TaxonomyService) RemoveCategory(ctx context.Context, name string) ([]string, error) {
	name, err := cleanLabel(name)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveCategory(ctx, name); err != nil {
		return nil, err
	}
	s.logger.Info("category removed", "name", name)
	return s.store.ListCategories(ctx)
}

// ListModels returns all model labels.
func (s *TaxonomyService) ListModels(ctx context.Context) ([]string, error) {
	return s.store.ListModels(ctx)
}

// AddModel inserts a label and returns the updated set.
func (s *TaxonomyService) AddModel(ctx context.Context, name string) ([]string, error) {
	name, err := cleanLabel(name)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddModel(ctx, name); err != nil {
		return nil, err
	}
	s.logger.Info("model added", "name", name)
	return s.store.ListModels(ctx)
}

// RemoveModel removes a label from the set only.
func (s *TaxonomyService) RemoveModel(ctx context.Context, name string) ([]string, error) {
	name, err := cleanLabel(name)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveModel(ctx, name); err != nil {
		return nil, err
	}
	s.logger.Info("model removed", "name", name)
	return s.store.ListModels(ctx)
}

// ListTags returns the distinct union of all prompts' tags.
func (s *TaxonomyService) ListTags(ctx context.Context) ([]string, error) {
	return s.store.ListTags(ctx)
}

// cleanLabel trims whitespace and rejects empty or wildcard names.
func cleanLabel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domainerrors.Validation("label name is required")
	}
	if name == store.FilterAll {
		return "", domainerrors.Validationf("label name %q is reserved", store.FilterAll)
	}
	return name, nil
}
