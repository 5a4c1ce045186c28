package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"strings"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// promptColumns is the ordered list of columns selected in prompt
// queries. Must match the scan order in scanPrompt.
const promptColumns = `id, text, category, model, rating, notes, used_count, thumbnail, created_at, updated_at`

// scanPrompt scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Prompt. Tags are loaded separately.
func scanPrompt(scanner interface{ Scan(dest ...any) error }) (*domain.Prompt, error) {
	var p domain.Prompt

	var (
		thumbnail sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Text,
		&p.Category,
		&p.Model,
		&p.Rating,
		&p.Notes,
		&p.UsedCount,
		&thumbnail,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if thumbnail.Valid {
		var info domain.ThumbnailInfo
		if err := json.Unmarshal([]byte(thumbnail.String), &info); err != nil {
			return nil, err
		}
		p.Thumbnail = &info
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// thumbnailJSON serializes the thumbnail metadata for storage, NULL
// when absent.
func thumbnailJSON(p *domain.Prompt) (sql.NullString, error) {
	if p.Thumbnail == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(p.Thumbnail)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loadTags attaches tag rows to each prompt in the slice.
func loadTags(ctx context.Context, q querier, prompts []*domain.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT prompt_id, tag FROM prompt_tags ORDER BY prompt_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	tagsByID := make(map[string][]string)
	for rows.Next() {
		var promptID, tag string
		if err := rows.Scan(&promptID, &tag); err != nil {
			return err
		}
		tagsByID[promptID] = append(tagsByID[promptID], tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range prompts {
		p.Tags = tagsByID[p.ID]
	}
	return nil
}

// writeTags replaces the tag rows for a prompt.
func writeTags(ctx context.Context, q querier, promptID string, tags []string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM prompt_tags WHERE prompt_id = ?`, promptID); err != nil {
		return err
	}
	for i, tag := range tags {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO prompt_tags (prompt_id, tag, position) VALUES (?, ?, ?)`,
			promptID, tag, i); err != nil {
			return err
		}
	}
	return nil
}

// upsertPrompt writes the prompt row and its tags inside tx.
func upsertPrompt(ctx context.Context, tx *sql.Tx, p *domain.Prompt) error {
	thumb, err := thumbnailJSON(p)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prompts (id, text, category, model, rating, notes, used_count, thumbnail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			category = excluded.category,
			model = excluded.model,
			rating = excluded.rating,
			notes = excluded.notes,
			used_count = excluded.used_count,
			thumbnail = excluded.thumbnail,
			updated_at = excluded.updated_at`,
		p.ID,
		p.Text,
		p.Category,
		p.Model,
		p.Rating,
		p.Notes,
		p.UsedCount,
		thumb,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return writeTags(ctx, tx, p.ID, p.Tags)
}

// CreatePrompt stores a new prompt record.
func (s *Store) CreatePrompt(ctx context.Context, p *domain.Prompt) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	thumb, err := thumbnailJSON(p)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prompts (id, text, category, model, rating, notes, used_count, thumbnail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Text,
		p.Category,
		p.Model,
		p.Rating,
		p.Notes,
		p.UsedCount,
		thumb,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("prompt already exists")
		}
		return err
	}

	if err := writeTags(ctx, tx, p.ID, p.Tags); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.emitter.Emit(store.PromptCreated{Prompt: p})
	return nil
}

// GetPrompt retrieves a prompt by ID.
func (s *Store) GetPrompt(ctx context.Context, id string) (*domain.Prompt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id)

	p, err := scanPrompt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPromptNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM prompt_tags WHERE prompt_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		p.Tags = append(p.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

// UpdatePrompt writes the full record over the existing one.
func (s *Store) UpdatePrompt(ctx context.Context, p *domain.Prompt) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM prompts WHERE id = ?`, p.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrPromptNotFound
	}
	if err != nil {
		return err
	}

	if err := upsertPrompt(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.emitter.Emit(store.PromptUpdated{Prompt: p})
	return nil
}

// MutatePrompt applies mutate to the stored record and advances
// UpdatedAt, all inside one transaction under the write lock.
func (s *Store) MutatePrompt(ctx context.Context, id string, mutate func(*domain.Prompt) error) (*domain.Prompt, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id)
	p, err := scanPrompt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPromptNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadTags(ctx, tx, []*domain.Prompt{p}); err != nil {
		return nil, err
	}

	if err := mutate(p); err != nil {
		return nil, err
	}
	p.Touch()

	if err := upsertPrompt(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.emitter.Emit(store.PromptUpdated{Prompt: p})
	return p, nil
}

// DeletePrompt removes the record, its tags, and every saver state that
// references it, in one transaction.
func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrPromptNotFound
	}

	// Tag rows cascade; saver states do not, clear them explicitly.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM saver_states WHERE last_prompt_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.emitter.Emit(store.PromptDeleted{PromptID: id})
	return nil
}

// ListPrompts returns prompts matching the filter, most recently
// updated first. Category, model, tag, and search constraints are
// pushed into SQL; ordering and limit are applied in Go so tie-breaks
// match the Badger backend exactly.
func (s *Store) ListPrompts(ctx context.Context, filter store.ListFilter) ([]*domain.Prompt, error) {
	filter.Normalize()

	query := `SELECT ` + promptColumns + ` FROM prompts WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Model != "" {
		query += ` AND model = ?`
		args = append(args, filter.Model)
	}
	if filter.Tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM prompt_tags WHERE prompt_id = prompts.id AND tag = ?)`
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		query += ` AND (instr(lower(text), ?) > 0 OR instr(lower(notes), ?) > 0)`
		args = append(args, filter.Search, filter.Search)
	}

	prompts, err := s.queryPrompts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	store.SortForListing(prompts)
	if len(prompts) > filter.Limit {
		prompts = prompts[:filter.Limit]
	}
	return prompts, nil
}

// ExportPrompts returns every record in stable snapshot order.
func (s *Store) ExportPrompts(ctx context.Context) ([]*domain.Prompt, error) {
	prompts, err := s.queryPrompts(ctx, `SELECT `+promptColumns+` FROM prompts`)
	if err != nil {
		return nil, err
	}

	store.SortForExport(prompts)
	return prompts, nil
}

// Stats counts prompt records with one aggregate query.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN rating > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN thumbnail IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM prompts`).Scan(&stats.Total, &stats.Rated, &stats.WithThumbnail)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Store) queryPrompts(ctx context.Context, query string, args ...any) ([]*domain.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []*domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadTags(ctx, s.db, prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}
