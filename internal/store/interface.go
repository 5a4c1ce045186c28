// Package store defines the persistence interface for the prompt library.
//
// Two backends implement it: the primary BadgerDB key-value store
// (store/badger) and an alternate SQLite store (store/sqlite). The
// service layer only ever sees this interface, so backends stay honest
// and tests can run against either.
package store

import (
	"context"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Prompts
	CreatePrompt(ctx context.Context, p *domain.Prompt) error
	GetPrompt(ctx context.Context, id string) (*domain.Prompt, error)
	// UpdatePrompt writes the full record. Returns ErrNotFound if the id
	// is unknown. The caller is responsible for Touch().
	UpdatePrompt(ctx context.Context, p *domain.Prompt) error
	// MutatePrompt applies mutate to the stored record inside one
	// transaction: at most one in-flight mutation per id, and a record
	// write is all-or-nothing. UpdatedAt is advanced after mutate runs.
	MutatePrompt(ctx context.Context, id string, mutate func(*domain.Prompt) error) (*domain.Prompt, error)
	// DeletePrompt removes the record and clears any SaverState whose
	// LastPromptID references it.
	DeletePrompt(ctx context.Context, id string) error
	ListPrompts(ctx context.Context, filter ListFilter) ([]*domain.Prompt, error)
	// ExportPrompts returns every record ordered by CreatedAt ascending
	// (ties by ID) for stable snapshot output.
	ExportPrompts(ctx context.Context) ([]*domain.Prompt, error)
	Stats(ctx context.Context) (*domain.Stats, error)

	// Saver state
	GetSaverState(ctx context.Context, saverID string) (*domain.SaverState, error)
	PutSaverState(ctx context.Context, state *domain.SaverState) error
	DeleteSaverState(ctx context.Context, saverID string) error
	DeleteAllSaverStates(ctx context.Context) error

	// Taxonomy label sets. Adds are idempotent; removes never touch
	// prompts that reference the label.
	AddCategory(ctx context.Context, name string) error
	RemoveCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]string, error)
	AddModel(ctx context.Context, name string) error
	RemoveModel(ctx context.Context, name string) error
	ListModels(ctx context.Context) ([]string, error)
	// ListTags is a projection: the distinct union of all prompts' tags,
	// computed fresh. There is no independent tag table to drift.
	ListTags(ctx context.Context) ([]string, error)
}

// EventEmitter is the interface for broadcasting store changes.
// Backends use this to notify the SSE layer without depending on it.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}
