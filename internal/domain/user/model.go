package user

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the built-in access level of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
	RoleHR       Role = "HR"
)

// ParseRole accepts any casing of a known role.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee, RoleHR:
		return role, true
	}
	return "", false
}

// Workload buckets the number of open tasks assigned to a user.
type Workload string

const (
	WorkloadLow    Workload = "low"
	WorkloadMedium Workload = "medium"
	WorkloadHigh   Workload = "high"
)

const (
	MinRating = 0.0
	MaxRating = 10.0
)

// Stats are derived from the tasks assigned to a user; never sent to the server.
type Stats struct {
	CompletedTasks  int      `json:"completedTasks"`
	InProgressTasks int      `json:"inProgressTasks"`
	Efficiency      float64  `json:"efficiency"`
	TotalHours      float64  `json:"totalHours"`
	Workload        Workload `json:"workload"`
}

// User is an employee account.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	DepartmentIDs []string `json:"departmentIds"`
	CompanyIDs    []string `json:"companyIds"`
	ManagerIDs    []string `json:"managerIds"`
	Rating        float64  `json:"rating"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	Stats         *Stats   `json:"stats,omitempty"`
}

func (u User) EntityID() string { return u.ID }

func (u User) Stamps() (createdAt, timestamp string) { return u.CreatedAt, "" }

// InDepartment reports whether the user is a member of the department.
func (u User) InDepartment(departmentID string) bool {
	return slices.Contains(u.DepartmentIDs, departmentID)
}

// CreateRequest describes a user creation request.
type CreateRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	DepartmentIDs []string `json:"departmentIds"`
	CompanyIDs    []string `json:"companyIds"`
	ManagerIDs    []string `json:"managerIds"`
	Rating        float64  `json:"rating"`
}

// Validate checks required fields. Manager links only apply to employees and
// are dropped for every other role.
// Normalize defaults the role to EMPLOYEE, canonicalises a known role and
// drops managers from anyone who is not an employee. An unknown role is left
// for Validate to report.
func (r *CreateRequest) Normalize() {
	if r.Role == "" {
		r.Role = RoleEmployee
	}
	if role, ok := ParseRole(string(r.Role)); ok {
		r.Role = role
	}
	if r.Role != RoleEmployee {
		r.ManagerIDs = nil
	}
}

func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	r.Normalize()
	if _, ok := ParseRole(string(r.Role)); !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, r.Role)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between 0 and 10", ErrInvalidInput)
	}
	return nil
}

// UpdateRequest replaces the mutable fields of a user.
type UpdateRequest struct {
	ID string `json:"id"`
	CreateRequest
}

func (r *UpdateRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return r.CreateRequest.Validate()
}
