package store

import "github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"

// Change events emitted by both backends after a committed write.
// The SSE layer converts these into wire events for the panel; the
// store stays ignorant of transport details.

// PromptCreated is emitted after a new prompt record is committed.
type PromptCreated struct {
	Prompt *domain.Prompt
}

// PromptUpdated is emitted after any field mutation commits, including
// rating, tag edits, and thumbnail attachment.
type PromptUpdated struct {
	Prompt *domain.Prompt
}

// PromptDeleted is emitted after a prompt record is removed.
type PromptDeleted struct {
	PromptID string
}
