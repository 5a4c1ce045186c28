package service

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	badgerstore "github.com/danieljanata/ComfyUI-Prompting-System/internal/store/badger"
)

// newTestStore opens a throwaway Badger store for service tests.
func newTestStore(t *testing.T) *badgerstore.Store {
	t.Helper()

	s, err := badgerstore.Open(filepath.Join(t.TempDir(), "db"), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newPrompt builds a minimal valid record for seeding the store directly.
func newPrompt(t *testing.T, text string) *domain.Prompt {
	t.Helper()
	p := &domain.Prompt{Text: text}
	p.ID = id.MustGenerate("prompt")
	p.InitTimestamps()
	return p
}
