package badger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)
	require.NotNil(t, s)

	t.Cleanup(func() { s.Close() })
	return s
}

func newPrompt(t *testing.T, text string) *domain.Prompt {
	t.Helper()
	p := &domain.Prompt{
		Text:     text,
		Category: "scenes",
		Model:    "sdxl",
		Tags:     domain.NormalizeTags([]string{"test"}),
	}
	p.ID = id.MustGenerate("prompt")
	p.InitTimestamps()
	return p
}

func TestCreateAndGetPrompt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "a lighthouse at dusk")
	require.NoError(t, s.CreatePrompt(ctx, p))

	got, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "a lighthouse at dusk", got.Text)
	assert.Equal(t, "scenes", got.Category)
	assert.Equal(t, []string{"test"}, got.Tags)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreatePrompt_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "dup")
	require.NoError(t, s.CreatePrompt(ctx, p))

	err := s.CreatePrompt(ctx, p)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetPrompt_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPrompt(context.Background(), "prompt-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdatePrompt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "original")
	require.NoError(t, s.CreatePrompt(ctx, p))

	p.Text = "revised"
	p.Touch()
	require.NoError(t, s.UpdatePrompt(ctx, p))

	got, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Text)

	missing := newPrompt(t, "ghost")
	assert.ErrorIs(t, s.UpdatePrompt(ctx, missing), store.ErrNotFound)
}

func TestMutatePrompt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "mutable")
	require.NoError(t, s.CreatePrompt(ctx, p))
	before := p.UpdatedAt

	got, err := s.MutatePrompt(ctx, p.ID, func(p *domain.Prompt) error {
		p.Rating = 4
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.True(t, got.UpdatedAt.After(before) || got.UpdatedAt.Equal(before))

	stored, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)
}

func TestMutatePrompt_ConcurrentSameID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "contended")
	require.NoError(t, s.CreatePrompt(ctx, p))

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.MutatePrompt(ctx, p.ID, func(p *domain.Prompt) error {
				p.UsedCount++
				return nil
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	stored, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, stored.UsedCount)
}

func TestMutatePrompt_ErrorAborts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "untouched")
	require.NoError(t, s.CreatePrompt(ctx, p))

	_, err := s.MutatePrompt(ctx, p.ID, func(p *domain.Prompt) error {
		p.Rating = 5
		return store.ErrInvalidInput
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	stored, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Rating)
}

func TestDeletePrompt_ClearsSaverStates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := newPrompt(t, "referenced")
	require.NoError(t, s.CreatePrompt(ctx, p))

	require.NoError(t, s.PutSaverState(ctx, &domain.SaverState{
		SaverID:       "saver-1",
		LastSavedText: p.Text,
		LastPromptID:  p.ID,
	}))
	require.NoError(t, s.PutSaverState(ctx, &domain.SaverState{
		SaverID:       "saver-2",
		LastSavedText: "something else",
		LastPromptID:  "prompt-other",
	}))

	require.NoError(t, s.DeletePrompt(ctx, p.ID))

	_, err := s.GetPrompt(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The referencing state is gone, the unrelated one survives.
	_, err = s.GetSaverState(ctx, "saver-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	other, err := s.GetSaverState(ctx, "saver-2")
	require.NoError(t, err)
	assert.Equal(t, "prompt-other", other.LastPromptID)
}

func TestDeletePrompt_NotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.DeletePrompt(context.Background(), "prompt-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPrompts_FilterAndOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	older := newPrompt(t, "a cat in the garden")
	older.Category = "animals"
	older.Tags = []string{"cat"}
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	require.NoError(t, s.CreatePrompt(ctx, older))

	newer := newPrompt(t, "a cat on the roof")
	newer.Category = "animals"
	newer.Tags = []string{"cat", "roof"}
	require.NoError(t, s.CreatePrompt(ctx, newer))

	unrelated := newPrompt(t, "a spaceship in orbit")
	unrelated.Category = "scifi"
	unrelated.Tags = []string{"space"}
	require.NoError(t, s.CreatePrompt(ctx, unrelated))

	got, err := s.ListPrompts(ctx, store.ListFilter{Search: "cat", Category: "animals"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)

	got, err = s.ListPrompts(ctx, store.ListFilter{Tag: "roof"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newer.ID, got[0].ID)

	got, err = s.ListPrompts(ctx, store.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExportPrompts_Order(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	second := newPrompt(t, "second")
	require.NoError(t, s.CreatePrompt(ctx, second))

	first := newPrompt(t, "first")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	first.UpdatedAt = first.CreatedAt
	require.NoError(t, s.CreatePrompt(ctx, first))

	got, err := s.ExportPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	plain := newPrompt(t, "plain")
	require.NoError(t, s.CreatePrompt(ctx, plain))

	rated := newPrompt(t, "rated")
	rated.Rating = 5
	require.NoError(t, s.CreatePrompt(ctx, rated))

	withThumb := newPrompt(t, "thumb")
	withThumb.Thumbnail = &domain.ThumbnailInfo{Hash: "abc", Size: 1024}
	require.NoError(t, s.CreatePrompt(ctx, withThumb))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Rated)
	assert.Equal(t, 1, stats.WithThumbnail)
}

func TestSaverStateLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetSaverState(ctx, "saver-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	state := &domain.SaverState{
		SaverID:       "saver-1",
		LastSavedText: "a cat",
		LastPromptID:  "prompt-abc",
	}
	require.NoError(t, s.PutSaverState(ctx, state))
	assert.False(t, state.UpdatedAt.IsZero())

	got, err := s.GetSaverState(ctx, "saver-1")
	require.NoError(t, err)
	assert.Equal(t, "a cat", got.LastSavedText)
	assert.Equal(t, "prompt-abc", got.LastPromptID)

	require.NoError(t, s.DeleteSaverState(ctx, "saver-1"))
	_, err = s.GetSaverState(ctx, "saver-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteSaverState(ctx, "saver-1"))
}

func TestDeleteAllSaverStates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"saver-1", "saver-2", "saver-3"} {
		require.NoError(t, s.PutSaverState(ctx, &domain.SaverState{SaverID: id}))
	}

	require.NoError(t, s.DeleteAllSaverStates(ctx))

	for _, id := range []string{"saver-1", "saver-2", "saver-3"} {
		_, err := s.GetSaverState(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestCategoryLabels(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddCategory(ctx, "portraits"))
	require.NoError(t, s.AddCategory(ctx, "animals"))
	require.NoError(t, s.AddCategory(ctx, "portraits")) // idempotent

	got, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"animals", "portraits"}, got)

	require.NoError(t, s.RemoveCategory(ctx, "animals"))
	require.NoError(t, s.RemoveCategory(ctx, "animals")) // idempotent

	got, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"portraits"}, got)
}

func TestRemoveCategory_DoesNotTouchPrompts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddCategory(ctx, "scenes"))
	p := newPrompt(t, "orphan check")
	require.NoError(t, s.CreatePrompt(ctx, p))

	require.NoError(t, s.RemoveCategory(ctx, "scenes"))

	got, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "scenes", got.Category)
}

func TestModelLabels(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddModel(ctx, "sdxl"))
	require.NoError(t, s.AddModel(ctx, "flux"))

	got, err := s.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flux", "sdxl"}, got)
}

func TestListTags_Projection(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := newPrompt(t, "first")
	a.Tags = []string{"cat", "garden"}
	require.NoError(t, s.CreatePrompt(ctx, a))

	b := newPrompt(t, "second")
	b.Tags = []string{"cat", "roof"}
	require.NoError(t, s.CreatePrompt(ctx, b))

	got, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "garden", "roof"}, got)

	// Tags follow the prompts; deleting the only user of "roof"
	// removes it from the projection.
	require.NoError(t, s.DeletePrompt(ctx, b.ID))

	got, err = s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "garden"}, got)
}
