package project

import (
	"fmt"
	"strings"
)

// CreateRequest describes a project creation request.
type CreateRequest struct {
	Name          string   `json:"name"`
	CompanyID     string   `json:"companyId"`
	DepartmentIDs []string `json:"departmentIds"`
	ManagerID     string   `json:"managerId,omitempty"`
}

// Validate checks fields required to create a project.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.CompanyID) == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	return nil
}

// UpdateRequest replaces the mutable fields of a project.
type UpdateRequest struct {
	ID string `json:"id"`
	CreateRequest
}

func (r UpdateRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return r.CreateRequest.Validate()
}

// ValidateRoadmap checks every milestone has a name, a known status and a
// date range that does not run backwards.
func ValidateRoadmap(roadmap []Milestone) error {
	for i, m := range roadmap {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: milestone %d has no name", ErrInvalidMilestone, i)
		}
		switch m.Status {
		case "", MilestonePending, MilestoneInProgress, MilestoneCompleted:
		default:
			return fmt.Errorf("%w: milestone %q has unknown status %q", ErrInvalidMilestone, m.Name, m.Status)
		}
		start, okStart := parseDate(m.StartDate)
		end, okEnd := parseDate(m.EndDate)
		if okStart && okEnd && end.Before(start) {
			return fmt.Errorf("%w: milestone %q ends before it starts", ErrInvalidMilestone, m.Name)
		}
	}
	return nil
}
