package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

func TestPromptService_CreateAssignsUniqueIDs(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	seen := make(map[string]bool)
	for range 50 {
		p, err := svc.Create(ctx, CreateRequest{Text: "same text every time"})
		require.NoError(t, err)
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestPromptService_CreateRegistersLabels(t *testing.T) {
	st := newTestStore(t)
	svc := NewPromptService(st, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Text: "x", Category: "portraits", Model: "sdxl", Tags: "a, b"})
	require.NoError(t, err)

	categories, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Contains(t, categories, "portraits")

	models, err := st.ListModels(ctx)
	require.NoError(t, err)
	assert.Contains(t, models, "sdxl")
}

func TestPromptService_UpdatePartial(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Text: "original", Category: "scenes", Tags: "a, b"})
	require.NoError(t, err)

	category := "portraits"
	got, err := svc.Update(ctx, p.ID, UpdateRequest{Category: &category})
	require.NoError(t, err)

	// Only the provided field changes.
	assert.Equal(t, "portraits", got.Category)
	assert.Equal(t, "original", got.Text)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, got.UpdatedAt.After(p.UpdatedAt) || got.UpdatedAt.Equal(p.UpdatedAt))

	tags := "c, d, C"
	got, err = svc.Update(ctx, p.ID, UpdateRequest{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, got.Tags)

	_, err = svc.Update(ctx, "prompt-missing", UpdateRequest{Category: &category})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPromptService_RatingToggle(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Text: "rate me"})
	require.NoError(t, err)

	// k then k resets to 0.
	got, err := svc.Rate(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)

	got, err = svc.Rate(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Rating)

	// k then j != k sets j.
	got, err = svc.Rate(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)

	got, err = svc.Rate(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
}

func TestPromptService_RateRejectsOutOfRange(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Text: "x"})
	require.NoError(t, err)

	for _, rating := range []int{-1, 6, 100} {
		_, err := svc.Rate(ctx, p.ID, rating)
		require.Error(t, err, "rating %d", rating)
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	}

	// The stored value is untouched by rejected ratings.
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Rating)
}

func TestPromptService_MarkUsed(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Text: "x"})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		got, err := svc.MarkUsed(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.UsedCount)
	}
}

func TestPromptService_FilterConjunction(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Text: "cat in garden", Category: "animals", Tags: "cat"})
	require.NoError(t, err)
	matching, err := svc.Create(ctx, CreateRequest{Text: "cat on mat", Category: "animals", Tags: "cat, mat"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Text: "dog on mat", Category: "animals", Tags: "dog, mat"})
	require.NoError(t, err)

	got, err := svc.List(ctx, store.ListFilter{Category: "animals", Tag: "mat", Search: "cat"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, matching.ID, got[0].ID)
}

func TestPromptService_Stats(t *testing.T) {
	svc := NewPromptService(newTestStore(t), testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Text: "plain"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Text: "rated", Rating: 5})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Rated)
	assert.Equal(t, 0, stats.WithThumbnail)
}
