package badger

import (
	"context"
	"encoding/json/v2"
	"sort"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

// Category and model labels are open sets stored as bare keys with
// empty values. Adds and removes are both idempotent; removing a label
// never touches prompts that still reference it.

// AddCategory inserts a category label. No-op if already present.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	return s.addLabel(ctx, categoryPrefix, name)
}

// RemoveCategory removes a category label from the set only.
func (s *Store) RemoveCategory(ctx context.Context, name string) error {
	return s.removeLabel(ctx, categoryPrefix, name)
}

// ListCategories returns all category labels sorted alphabetically.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return s.listLabels(ctx, categoryPrefix)
}

// AddModel inserts a model label. No-op if already present.
func (s *Store) AddModel(ctx context.Context, name string) error {
	return s.addLabel(ctx, modelPrefix, name)
}

// RemoveModel removes a model label from the set only.
func (s *Store) RemoveModel(ctx context.Context, name string) error {
	return s.removeLabel(ctx, modelPrefix, name)
}

// ListModels returns all model labels sorted alphabetically.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	return s.listLabels(ctx, modelPrefix)
}

// ListTags returns the distinct union of all prompts' tags, sorted
// alphabetically. Computed fresh on every call so there is no separate
// tag table to drift out of sync with actual usage.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	prefix := []byte(promptPrefix)

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.Prompt
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				continue
			}
			for _, tag := range p.Tags {
				seen[tag] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *Store) addLabel(ctx context.Context, prefix, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(prefix+name), nil)
	})
}

func (s *Store) removeLabel(ctx context.Context, prefix, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(prefix + name))
	})
}

func (s *Store) listLabels(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := []byte(prefix)
	var labels []string

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = p
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := it.Item().Key()
			labels = append(labels, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(labels)
	return labels, nil
}
