package sqlite

import (
	"context"
)

// AddCategory inserts a category label. No-op if already present.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	return s.addLabel(ctx, "categories", name)
}

// RemoveCategory removes a category label from the set only. Prompts
// referencing it are untouched.
func (s *Store) RemoveCategory(ctx context.Context, name string) error {
	return s.removeLabel(ctx, "categories", name)
}

// ListCategories returns all category labels sorted alphabetically.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return s.listLabels(ctx, "categories")
}

// AddModel inserts a model label. No-op if already present.
func (s *Store) AddModel(ctx context.Context, name string) error {
	return s.addLabel(ctx, "models", name)
}

// RemoveModel removes a model label from the set only.
func (s *Store) RemoveModel(ctx context.Context, name string) error {
	return s.removeLabel(ctx, "models", name)
}

// ListModels returns all model labels sorted alphabetically.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	return s.listLabels(ctx, "models")
}

// ListTags returns the distinct union of all prompts' tags, computed
// fresh from the tag table.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM prompt_tags ORDER BY tag ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Label tables are single-column sets; table names are fixed by the
// callers above, never user input.

func (s *Store) addLabel(ctx context.Context, table, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	return err
}

func (s *Store) removeLabel(ctx context.Context, table, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE name = ?`, name)
	return err
}

func (s *Store) listLabels(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM `+table+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		labels = append(labels, name)
	}
	return labels, rows.Err()
}
