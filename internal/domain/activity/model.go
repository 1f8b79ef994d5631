package activity

import "time"

// Outcome describes how a user-initiated operation ended.
type Outcome string

const (
	OutcomeSynced       Outcome = "synced"
	OutcomeSavedLocally Outcome = "saved_locally"
	OutcomeFailed       Outcome = "failed"
	OutcomeWarning      Outcome = "warning"
)

// Entry is one user-facing notice about an operation.
type Entry struct {
	ID          int64     `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Operation   string    `json:"operation"`
	Resource    string    `json:"resource"`
	RecordID    string    `json:"record_id,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
