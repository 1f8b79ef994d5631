package task

import (
	"slices"
	"strings"
)

// Status represents the workflow state of a task
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus accepts the spellings seen on the wire ("in-progress",
// "In Progress", "on_hold") and returns the canonical status.
func ParseStatus(s string) (Status, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch Status(norm) {
	case StatusTodo, StatusInProgress, StatusOnHold, StatusCompleted:
		return Status(norm), true
	case "DONE":
		return StatusCompleted, true
	}
	return "", false
}

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// Task is a unit of work owned by exactly one project.
//
// Some backends send a single assigneeId, others an assigneeIds list; both are
// kept so either shape round-trips. Use Assignees to read them.
type Task struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ProjectID     string   `json:"projectId"`
	AssigneeID    string   `json:"assigneeId,omitempty"`
	AssigneeIDs   []string `json:"assigneeIds,omitempty"`
	Status        Status   `json:"status"`
	Priority      Priority `json:"priority"`
	DueDate       string   `json:"dueDate,omitempty"`
	EstimatedTime float64  `json:"estimatedTime"`
	Dependency    string   `json:"dependency,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

func (t Task) EntityID() string { return t.ID }

func (t Task) Stamps() (createdAt, timestamp string) { return t.CreatedAt, "" }

// Assignees returns the union of both assignee shapes, single id first.
func (t Task) Assignees() []string {
	out := make([]string, 0, len(t.AssigneeIDs)+1)
	if t.AssigneeID != "" {
		out = append(out, t.AssigneeID)
	}
	for _, id := range t.AssigneeIDs {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// AssignedTo reports whether the user is among the task's assignees.
func (t Task) AssignedTo(userID string) bool {
	return slices.Contains(t.Assignees(), userID)
}

// Open reports whether the task still needs work.
func (t Task) Open() bool {
	return t.Status == StatusTodo || t.Status == StatusInProgress
}
