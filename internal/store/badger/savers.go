package badger

import (
	"context"
	"errors"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// GetSaverState retrieves the state for one saver.
func (s *Store) GetSaverState(ctx context.Context, saverID string) (*domain.SaverState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state domain.SaverState
	err := s.db.View(func(txn *badgerdb.Txn) error {
		return getJSON(txn, []byte(saverPrefix+saverID), &state)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, store.ErrSaverNotFound
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// PutSaverState creates or replaces the state for a saver and stamps
// UpdatedAt.
func (s *Store) PutSaverState(ctx context.Context, state *domain.SaverState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()
	return s.update(func(txn *badgerdb.Txn) error {
		return setJSON(txn, []byte(saverPrefix+state.SaverID), state)
	})
}

// DeleteSaverState removes one saver's state. Deleting a saver that
// never submitted is a no-op, so reset is safely idempotent.
func (s *Store) DeleteSaverState(ctx context.Context, saverID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(saverPrefix + saverID))
	})
}

// DeleteAllSaverStates clears every saver's state.
func (s *Store) DeleteAllSaverStates(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		prefix := []byte(saverPrefix)
		var keys [][]byte

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
