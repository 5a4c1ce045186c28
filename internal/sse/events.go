// Package sse implements Server-Sent Events for pushing library changes
// to connected panels. Communication is one-way; panels act through the
// REST API and hear about the results here.
package sse

import (
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventPromptCreated represents a prompt creation event.
	EventPromptCreated EventType = "prompt.created"
	// EventPromptUpdated represents any prompt field change, including
	// rating, tag edits, and thumbnail capture.
	EventPromptUpdated EventType = "prompt.updated"
	// EventPromptDeleted represents a prompt deletion event.
	EventPromptDeleted EventType = "prompt.deleted"

	// EventImportCompleted represents a finished snapshot merge.
	EventImportCompleted EventType = "import.completed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// PromptEventData is the data payload for prompt create/update events.
// The full record rides along so panels can render without a follow-up
// fetch.
type PromptEventData struct {
	Prompt *domain.Prompt `json:"prompt"`
}

// PromptDeletedEventData is the data payload for prompt delete events.
type PromptDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	PromptID  string    `json:"prompt_id"`
}

// ImportCompletedEventData is the data payload for import completion events.
type ImportCompletedEventData struct {
	CompletedAt time.Time `json:"completed_at"`
	Added       int       `json:"added"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewPromptCreatedEvent creates a prompt.created event.
func NewPromptCreatedEvent(p *domain.Prompt) Event {
	return Event{
		Type:      EventPromptCreated,
		Data:      PromptEventData{Prompt: p},
		Timestamp: time.Now(),
	}
}

// NewPromptUpdatedEvent creates a prompt.updated event.
func NewPromptUpdatedEvent(p *domain.Prompt) Event {
	return Event{
		Type:      EventPromptUpdated,
		Data:      PromptEventData{Prompt: p},
		Timestamp: time.Now(),
	}
}

// NewPromptDeletedEvent creates a prompt.deleted event.
func NewPromptDeletedEvent(promptID string) Event {
	return Event{
		Type: EventPromptDeleted,
		Data: PromptDeletedEventData{
			PromptID:  promptID,
			DeletedAt: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewImportCompletedEvent creates an import.completed event.
func NewImportCompletedEvent(result *domain.ImportResult) Event {
	return Event{
		Type: EventImportCompleted,
		Data: ImportCompletedEventData{
			CompletedAt: time.Now(),
			Added:       result.Added,
			Updated:     result.Updated,
			Skipped:     result.Skipped,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
