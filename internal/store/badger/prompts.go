package badger

import (
	"context"
	"encoding/json/v2"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// CreatePrompt stores a new prompt record.
func (s *Store) CreatePrompt(ctx context.Context, p *domain.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(promptPrefix + p.ID)
	err := s.update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return store.ErrAlreadyExists.WithMessage("prompt already exists")
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, key, p)
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(store.PromptCreated{Prompt: p})
	return nil
}

// GetPrompt retrieves a prompt by ID.
func (s *Store) GetPrompt(ctx context.Context, id string) (*domain.Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *domain.Prompt
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		p, err = getPromptTxn(txn, id)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, store.ErrPromptNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

// UpdatePrompt writes the full record over the existing one.
func (s *Store) UpdatePrompt(ctx context.Context, p *domain.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(promptPrefix + p.ID)
	err := s.update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return store.ErrPromptNotFound
			}
			return err
		}
		return setJSON(txn, key, p)
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(store.PromptUpdated{Prompt: p})
	return nil
}

// MutatePrompt applies mutate to the stored record and advances
// UpdatedAt, all inside one transaction. The store's write mutex keeps
// concurrent mutations of the same id from interleaving their read and
// write.
func (s *Store) MutatePrompt(ctx context.Context, id string, mutate func(*domain.Prompt) error) (*domain.Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *domain.Prompt
	err := s.update(func(txn *badgerdb.Txn) error {
		var err error
		p, err = getPromptTxn(txn, id)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return store.ErrPromptNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		p.Touch()
		return setJSON(txn, []byte(promptPrefix+id), p)
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(store.PromptUpdated{Prompt: p})
	return p, nil
}

// DeletePrompt removes the record and, in the same transaction, deletes
// every SaverState whose LastPromptID references it so no saver points
// at a ghost.
func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.update(func(txn *badgerdb.Txn) error {
		key := []byte(promptPrefix + id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return store.ErrPromptNotFound
			}
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}

		// Collect referencing saver keys first; deleting while an
		// iterator is open on the same prefix is not safe.
		prefix := []byte(saverPrefix)
		var stale [][]byte

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var state domain.SaverState
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &state)
			})
			if err != nil {
				continue
			}
			if state.LastPromptID == id {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		it.Close()

		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(store.PromptDeleted{PromptID: id})
	return nil
}

// ListPrompts returns prompts matching the filter, most recently
// updated first.
func (s *Store) ListPrompts(ctx context.Context, filter store.ListFilter) ([]*domain.Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter.Normalize()

	prompts, err := s.collectPrompts(func(p *domain.Prompt) bool {
		return filter.Matches(p)
	})
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompts, err := s.collectPrompts(nil)
	if err != nil {
		return nil, err
	}

	store.SortForExport(prompts)
	return prompts, nil
}

// Stats counts prompt records in a single pass.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &domain.Stats{}
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
			stats.Total++
			if p.Rating > domain.MinRating {
				stats.Rated++
			}
			if p.Thumbnail != nil {
				stats.WithThumbnail++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// collectPrompts iterates the prompt namespace and returns records
// passing keep (nil keeps everything).
func (s *Store) collectPrompts(keep func(*domain.Prompt) bool) ([]*domain.Prompt, error) {
	prefix := []byte(promptPrefix)
	var prompts []*domain.Prompt

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
			if keep == nil || keep(&p) {
				prompts = append(prompts, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return prompts, nil
}
