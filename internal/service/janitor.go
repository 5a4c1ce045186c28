package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// Janitor periodically removes stale prompts nobody cared about:
// unrated, never marked used, and untouched for longer than MaxAge.
type Janitor struct {
	store    store.Store
	logger   *slog.Logger
	maxAge   time.Duration
	interval time.Duration
}

// NewJanitor creates a cleanup job.
func NewJanitor(st store.Store, logger *slog.Logger, maxAge, interval time.Duration) *Janitor {
	return &Janitor{
		store:    st,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("janitor started", "max_age", j.maxAge, "interval", j.interval)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			if _, err := j.SweepOnce(ctx); err != nil {
				j.logger.Error("janitor sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes stale prompts and returns how many were removed.
// Prompts with a rating, a use count, or a thumbnail are never touched.
func (j *Janitor) SweepOnce(ctx context.Context) (int, error) {
	prompts, err := j.store.ExportPrompts(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, p := range prompts {
		if p.Rating > 0 || p.UsedCount > 0 || p.Thumbnail != nil {
			continue
		}
		if p.UpdatedAt.After(cutoff) {
			continue
		}
		if err := j.store.DeletePrompt(ctx, p.ID); err != nil {
			j.logger.Warn("janitor failed to delete prompt", "prompt_id", p.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("janitor removed stale prompts", "count", removed)
	}
	return removed, nil
}
