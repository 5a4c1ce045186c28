package domain

import "time"

// SaverState is the transient per-authoring-point control state the
// change detector uses to decide whether a submission continues the
// previously saved prompt or starts a new one.
//
// One exists per saver ID. It is created on first submission, cleared by
// an explicit reset, and never auto-expires. It is control state, not a
// browsable entity.
type SaverState struct {
	SaverID       string    `json:"saver_id"`
	LastSavedText string    `json:"last_saved_text"`
	LastPromptID  string    `json:"last_prompt_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Classification is the change detector's verdict on a submission.
type Classification string

const (
	// ClassificationNew means a fresh Prompt record was created.
	ClassificationNew Classification = "new"
	// ClassificationContinuation means the saver's last prompt was updated in place.
	ClassificationContinuation Classification = "continuation"
)
