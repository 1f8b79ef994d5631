package task

import (
	"fmt"
	"strings"
)

// CreateRequest describes a task creation request.
type CreateRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ProjectID     string   `json:"projectId"`
	AssigneeIDs   []string `json:"assigneeIds,omitempty"`
	Status        Status   `json:"status"`
	Priority      Priority `json:"priority"`
	DueDate       string   `json:"dueDate,omitempty"`
	EstimatedTime float64  `json:"estimatedTime"`
	Dependency    string   `json:"dependency,omitempty"`
}

// Validate checks required fields and fills status and priority defaults.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.ProjectID) == "" {
		return fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	if r.EstimatedTime < 0 {
		return fmt.Errorf("%w: estimated time cannot be negative", ErrInvalidInput)
	}
	r.Normalize()
	if _, ok := ParseStatus(string(r.Status)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if _, ok := ParsePriority(string(r.Priority)); !ok {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, r.Priority)
	}
	return nil
}

// Normalize defaults status to TODO and priority to medium and canonicalises
// known values. Unknown values are left for Validate to report.
func (r *CreateRequest) Normalize() {
	if r.Status == "" {
		r.Status = StatusTodo
	}
	if status, ok := ParseStatus(string(r.Status)); ok {
		r.Status = status
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if priority, ok := ParsePriority(string(r.Priority)); ok {
		r.Priority = priority
	}
}

// ValidateTransition checks a status change. A task on hold behind a
// dependency may only leave ON_HOLD once that dependency is completed; dep is
// nil when the dependency cannot be found.
func ValidateTransition(current Task, to Status, dep *Task) error {
	switch to {
	case StatusTodo, StatusInProgress, StatusOnHold, StatusCompleted:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	if current.Status != StatusOnHold || to == StatusOnHold || current.Dependency == "" {
		return nil
	}
	if dep == nil || dep.Status != StatusCompleted {
		return fmt.Errorf("%w: task %s waits on %s", ErrBlockedByDependency, current.ID, current.Dependency)
	}
	return nil
}

// ValidateDependency rejects self references.
func ValidateDependency(taskID, dependency string) error {
	if dependency != "" && dependency == taskID {
		return fmt.Errorf("%w: task cannot depend on itself", ErrInvalidInput)
	}
	return nil
}
