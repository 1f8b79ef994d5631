package project

import (
	"slices"
	"time"
)

// MilestoneStatus is the progress state of a roadmap milestone.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "PENDING"
	MilestoneInProgress MilestoneStatus = "IN_PROGRESS"
	MilestoneCompleted  MilestoneStatus = "COMPLETED"
)

// Milestone is a roadmap entry. It only exists inside its project.
type Milestone struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	StartDate   string          `json:"startDate,omitempty"`
	EndDate     string          `json:"endDate,omitempty"`
	Status      MilestoneStatus `json:"status"`
}

// Project owns tasks and an ordered roadmap.
//
// CreatedAt doubles as the version token for roadmap updates.
type Project struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	CompanyID     string      `json:"companyId,omitempty"`
	DepartmentIDs []string    `json:"departmentIds"`
	ManagerID     string      `json:"managerId,omitempty"`
	Roadmap       []Milestone `json:"roadmap"`
	CreatedAt     string      `json:"createdAt,omitempty"`
}

func (p Project) EntityID() string { return p.ID }

func (p Project) Stamps() (createdAt, timestamp string) { return p.CreatedAt, "" }

// InDepartment reports whether the project is linked to the department.
func (p Project) InDepartment(departmentID string) bool {
	return slices.Contains(p.DepartmentIDs, departmentID)
}

// Completion classifies a project by the state of its tasks.
type Completion string

const (
	CompletionPending    Completion = "pending"
	CompletionInProgress Completion = "in_progress"
	CompletionCompleted  Completion = "completed"
)

// Classify returns Pending for a project with no tasks, Completed when every
// task is done and InProgress otherwise.
func Classify(total, completed int) Completion {
	switch {
	case total == 0:
		return CompletionPending
	case completed >= total:
		return CompletionCompleted
	default:
		return CompletionInProgress
	}
}

// Counts tallies projects by completion.
type Counts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// Add records one project with the given completion.
func (c *Counts) Add(completion Completion) {
	c.Total++
	switch completion {
	case CompletionCompleted:
		c.Completed++
	case CompletionInProgress:
		c.InProgress++
	default:
		c.Pending++
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
