package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// GetSaverState retrieves the state for one saver.
func (s *Store) GetSaverState(ctx context.Context, saverID string) (*domain.SaverState, error) {
	var (
		state     domain.SaverState
		updatedAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT saver_id, last_saved_text, last_prompt_id, updated_at
		FROM saver_states WHERE saver_id = ?`, saverID).Scan(
		&state.SaverID,
		&state.LastSavedText,
		&state.LastPromptID,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSaverNotFound
	}
	if err != nil {
		return nil, err
	}

	state.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// PutSaverState creates or replaces the state for a saver and stamps
// UpdatedAt.
func (s *Store) PutSaverState(ctx context.Context, state *domain.SaverState) error {
	state.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saver_states (saver_id, last_saved_text, last_prompt_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(saver_id) DO UPDATE SET
			last_saved_text = excluded.last_saved_text,
			last_prompt_id = excluded.last_prompt_id,
			updated_at = excluded.updated_at`,
		state.SaverID,
		state.LastSavedText,
		state.LastPromptID,
		formatTime(state.UpdatedAt),
	)
	return err
}

// DeleteSaverState removes one saver's state. No-op if absent.
func (s *Store) DeleteSaverState(ctx context.Context, saverID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM saver_states WHERE saver_id = ?`, saverID)
	return err
}

// DeleteAllSaverStates clears every saver's state.
func (s *Store) DeleteAllSaverStates(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saver_states`)
	return err
}
