package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/snapshot"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// ImportService merges externally supplied snapshots into the live
// store. Imported records carry explicit identity; the merge never
// deletes anything and never duplicates a record it has seen before.
type ImportService struct {
	store  store.Store
	logger *slog.Logger

	// One import at a time. Imports are user-triggered bulk operations;
	// serializing them keeps the added/updated accounting honest.
	mu sync.Mutex
}

// NewImportService creates a new import service.
func NewImportService(st store.Store, logger *slog.Logger) *ImportService {
	return &ImportService{store: st, logger: logger}
}

// ImportPayload validates and merges a raw JSON payload. Validation
// failures surface as InvalidFormat before any write happens.
func (s *ImportService) ImportPayload(ctx context.Context, raw []byte) (*domain.ImportResult, error) {
	incoming, err := snapshot.Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.Merge(ctx, incoming)
}

// Merge applies incoming records one at a time:
//   - unknown id: insert with the imported id (identity-preserving)
//   - known id, different content: full replace of the content fields
//   - known id, identical content: skip, so re-importing an unchanged
//     snapshot reports added=0 updated=0
//
// An existing thumbnail survives when the incoming record carries none.
// Labels seen on imported records are added to the taxonomy.
func (s *ImportService) Merge(ctx context.Context, incoming []*domain.Prompt) (*domain.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &domain.ImportResult{}
	for _, r := range incoming {
		if err := s.mergeOne(ctx, r, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("import merged",
		"added", result.Added, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (s *ImportService) mergeOne(ctx context.Context, r *domain.Prompt, result *domain.ImportResult) error {
	r.Tags = domain.NormalizeTags(r.Tags)

	// Records without an id cannot match anything; give them one.
	if r.ID == "" {
		newID, err := id.Generate("prompt")
		if err != nil {
			return err
		}
		r.ID = newID
	}

	updated, err := s.store.MutatePrompt(ctx, r.ID, func(p *domain.Prompt) error {
		if p.ContentEquals(r) {
			return errSkipUnchanged
		}
		p.Text = r.Text
		p.Category = r.Category
		p.Model = r.Model
		p.Tags = r.Tags
		p.Rating = r.Rating
		p.Notes = r.Notes
		p.UsedCount = r.UsedCount
		// Never drop a thumbnail the import didn't supply.
		if r.Thumbnail != nil {
			p.Thumbnail = r.Thumbnail
		}
		return nil
	})

	switch {
	case err == nil:
		result.Updated++
		return s.registerLabels(ctx, updated)
	case errors.Is(err, errSkipUnchanged):
		result.Skipped++
		return nil
	case errors.Is(err, store.ErrNotFound):
		return s.insertImported(ctx, r, result)
	default:
		return err
	}
}

func (s *ImportService) insertImported(ctx context.Context, r *domain.Prompt, result *domain.ImportResult) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}

	if err := s.store.CreatePrompt(ctx, r); err != nil {
		return err
	}
	result.Added++
	return s.registerLabels(ctx, r)
}

func (s *ImportService) registerLabels(ctx context.Context, p *domain.Prompt) error {
	if p.Category != "" && p.Category != store.FilterAll {
		if err := s.store.AddCategory(ctx, p.Category); err != nil {
			return err
		}
	}
	if p.Model != "" && p.Model != store.FilterAll {
		if err := s.store.AddModel(ctx, p.Model); err != nil {
			return err
		}
	}
	return nil
}

// errSkipUnchanged aborts the mutate transaction for records whose
// content already matches; the abort is translated to a skip count.
var errSkipUnchanged = errors.New("record content unchanged")

// Export returns every prompt in stable snapshot order.
func (s *ImportService) Export(ctx context.Context) ([]*domain.Prompt, error) {
	return s.store.ExportPrompts(ctx)
}

// ExportToFile dumps the full library as a wrapped snapshot file.
func (s *ImportService) ExportToFile(ctx context.Context, path string) (*snapshot.Snapshot, error) {
	prompts, err := s.store.ExportPrompts(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.WriteFile(path, prompts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot exported", "path", path, "prompts", len(prompts), "snapshot_id", snap.SnapshotID)
	return snap, nil
}

// ImportFile reads, validates, and merges a snapshot file from disk.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*domain.ImportResult, error) {
	incoming, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Merge(ctx, incoming)
}
