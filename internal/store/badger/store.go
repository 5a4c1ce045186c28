// Package badger implements the store interface on BadgerDB.
//
// All records are JSON values under typed key prefixes. Every mutation
// goes through Store.update, which holds the write mutex around a
// single db.Update transaction; see update for why the mutex is there.
package badger

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// Key prefixes. One namespace per record type.
const (
	promptPrefix   = "prompt:"   // prompt:{id} → Prompt JSON
	saverPrefix    = "saver:"    // saver:{saverID} → SaverState JSON
	categoryPrefix = "category:" // category:{name} → empty
	modelPrefix    = "model:"    // model:{name} → empty
)

var _ store.Store = (*Store)(nil)

// Store is the BadgerDB-backed implementation of store.Store.
type Store struct {
	db      *badgerdb.DB
	logger  *slog.Logger
	emitter store.EventEmitter

	// Serializes write transactions. Badger's optimistic conflict
	// detection aborts one of two overlapping read-modify-write
	// transactions with ErrConflict; taking the lock up front means
	// conflicts cannot happen in the first place.
	writeMu sync.Mutex
}

// update runs fn inside a write transaction while holding writeMu, so
// read-modify-write sequences on the same keys never race each other.
func (s *Store) update(fn func(txn *badgerdb.Txn) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(fn)
}

// Open opens (or creates) a Badger database at path.
// The emitter receives change events after each committed write; pass
// nil to disable event broadcasting.
func Open(path string, logger *slog.Logger, emitter store.EventEmitter) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, store.ErrUnavailable.WithCause(fmt.Errorf("open badger db: %w", err))
	}

	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}

	s := &Store{
		db:      db,
		logger:  logger,
		emitter: emitter,
	}

	if logger != nil {
		logger.Info("badger database opened", "path", path)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// getJSON reads the value at key into dst. Returns badger.ErrKeyNotFound
// untranslated so callers can map it to the right sentinel.
func getJSON(txn *badgerdb.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

// setJSON marshals v and writes it at key.
func setJSON(txn *badgerdb.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// getPromptTxn loads a prompt inside an open transaction.
func getPromptTxn(txn *badgerdb.Txn, id string) (*domain.Prompt, error) {
	var p domain.Prompt
	if err := getJSON(txn, []byte(promptPrefix+id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
