package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

func newSaverService(t *testing.T) (*SaverService, store.Store) {
	t.Helper()
	st := newTestStore(t)
	return NewSaverService(st, testLogger(), 0), st
}

func countPrompts(t *testing.T, st store.Store) int {
	t.Helper()
	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	return stats.Total
}

func TestSubmit_FirstSubmissionIsNew(t *testing.T) {
	svc, _ := newSaverService(t)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, res.Classification)
	assert.Equal(t, "a cat sitting on a mat", res.Prompt.Text)
}

func TestSubmit_ContinuationIdempotence(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	// A run of similar edits collapses into one record holding the
	// last text.
	texts := []string{
		"a cat sitting on a mat",
		"a cat sitting on a red mat",
		"a black cat sitting on a red mat",
		"a black cat sleeping on a red mat",
	}

	var lastID string
	for i, text := range texts {
		res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: text})
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, domain.ClassificationNew, res.Classification)
			lastID = res.Prompt.ID
		} else {
			assert.Equal(t, domain.ClassificationContinuation, res.Classification, "submission %d", i)
			assert.Equal(t, lastID, res.Prompt.ID)
		}
	}

	assert.Equal(t, 1, countPrompts(t, st))

	final, err := st.GetPrompt(ctx, lastID)
	require.NoError(t, err)
	assert.Equal(t, texts[len(texts)-1], final.Text)
}

func TestSubmit_NewPromptFork(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "A cat sitting on a mat"})
	require.NoError(t, err)

	// Disjoint vocabulary forks a second record.
	forked, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "Completely different unrelated scene with a spaceship"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, forked.Classification)
	assert.NotEqual(t, first.Prompt.ID, forked.Prompt.ID)
	assert.Equal(t, 2, countPrompts(t, st))

	// A minor edit of the now-current text continues it.
	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "Completely different unrelated scene with a red spaceship"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationContinuation, res.Classification)
	assert.Equal(t, forked.Prompt.ID, res.Prompt.ID)
	assert.Equal(t, 2, countPrompts(t, st))
}

func TestSubmit_ResetForcesNew(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetForNew(ctx, "saver-1"))

	// Identical text, which would otherwise be a certain continuation.
	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, res.Classification)
	assert.NotEqual(t, first.Prompt.ID, res.Prompt.ID)
	assert.Equal(t, 2, countPrompts(t, st))
}

func TestSubmit_ResetAllSavers(t *testing.T) {
	svc, _ := newSaverService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "one two three"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitRequest{SaverID: "saver-2", Text: "four five six"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetForNew(ctx, ""))

	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "one two three"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, res.Classification)

	res, err = svc.Submit(ctx, SubmitRequest{SaverID: "saver-2", Text: "four five six"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, res.Classification)
}

func TestSubmit_SaversAreIndependent(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	// The same text from two savers never merges across them.
	a, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-a", Text: "a cat sitting on a mat"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-b", Text: "a cat sitting on a mat"})
	require.NoError(t, err)

	assert.Equal(t, domain.ClassificationNew, b.Classification)
	assert.NotEqual(t, a.Prompt.ID, b.Prompt.ID)
	assert.Equal(t, 2, countPrompts(t, st))
}

func TestSubmit_EmptyTextIsValid(t *testing.T) {
	svc, _ := newSaverService(t)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, res.Classification)
	assert.Empty(t, res.Prompt.Text)

	// Empty against empty scores 1.0 and continues.
	res, err = svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationContinuation, res.Classification)
}

func TestSubmit_MissingSaverIDRejected(t *testing.T) {
	svc, _ := newSaverService(t)

	_, err := svc.Submit(context.Background(), SubmitRequest{Text: "no saver"})
	assert.Error(t, err)
}

func TestSubmit_DeletedPromptFallsBackToNew(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)

	// Deleting the prompt clears the saver state with it; the next
	// identical submission starts fresh instead of resurrecting it.
	require.NoError(t, st.DeletePrompt(ctx, res.Prompt.ID))

	next, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationNew, next.Classification)
	assert.NotEqual(t, res.Prompt.ID, next.Prompt.ID)
}

func TestSubmit_ConcurrentSameSaverNoDuplicates(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	// Seed the saver so every racing submission is a continuation.
	_, err := svc.Submit(ctx, SubmitRequest{SaverID: "saver-1", Text: "a cat sitting on a mat"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, SubmitRequest{
				SaverID: "saver-1",
				Text:    fmt.Sprintf("a cat sitting on a mat %d", i),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Rapid-fire similar edits from one saver must not fragment into
	// several records.
	assert.Equal(t, 1, countPrompts(t, st))
}

func TestSubmit_RegistersLabels(t *testing.T) {
	svc, st := newSaverService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{
		SaverID:  "saver-1",
		Text:     "a cat",
		Category: "animals",
		Model:    "sdxl",
		Tags:     "cat, mat",
	})
	require.NoError(t, err)

	categories, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Contains(t, categories, "animals")

	tags, err := st.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "mat"}, tags)
}

func TestNewSaverService_DefaultThreshold(t *testing.T) {
	svc := NewSaverService(newTestStore(t), testLogger(), 0)
	assert.InDelta(t, 0.7, svc.Threshold(), 1e-9)

	tuned := NewSaverService(newTestStore(t), testLogger(), 0.9)
	assert.InDelta(t, 0.9, tuned.Threshold(), 1e-9)
}
