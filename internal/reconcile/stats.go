package reconcile

import (
	"math"
	"slices"

	"github.com/rpggio/workdesk/internal/cache"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
)

// Open task thresholds for user workload buckets.
const (
	lowWorkloadMax    = 3
	mediumWorkloadMax = 6
)

// CompanyRow is a company with its derived counts.
type CompanyRow struct {
	company.Company
	Provenance  cache.Provenance `json:"provenance"`
	Departments int              `json:"departments"`
	Employees   int              `json:"employees"`
	Projects    project.Counts   `json:"projects"`
}

// DepartmentRow is a department with its derived counts.
type DepartmentRow struct {
	department.Department
	Provenance cache.Provenance `json:"provenance"`
	Employees  int              `json:"employees"`
	Managers   int              `json:"managers"`
	Projects   project.Counts   `json:"projects"`
}

// UserRow is a user with derived task stats filled in.
type UserRow struct {
	user.User
	Provenance cache.Provenance `json:"provenance"`
}

// RoleRow is a role as cached.
type RoleRow struct {
	role.Role
	Provenance cache.Provenance `json:"provenance"`
}

// ProjectRow is a project with its completion classification.
type ProjectRow struct {
	project.Project
	Provenance     cache.Provenance   `json:"provenance"`
	Completion     project.Completion `json:"completion"`
	TotalTasks     int                `json:"totalTasks"`
	CompletedTasks int                `json:"completedTasks"`
}

// TaskRow is a task with its blocked state.
type TaskRow struct {
	task.Task
	Provenance cache.Provenance `json:"provenance"`
	Blocked    bool             `json:"blocked"`
}

// TaskBoard is the task screen, optionally scoped to one project.
type TaskBoard struct {
	ProjectID string    `json:"projectId,omitempty"`
	Tasks     []TaskRow `json:"tasks"`
}

func groupByProject(tasks []task.Task) map[string][]task.Task {
	out := make(map[string][]task.Task)
	for _, t := range tasks {
		out[t.ProjectID] = append(out[t.ProjectID], t)
	}
	return out
}

// completion classifies a project from its tasks.
func completion(tasks []task.Task) (project.Completion, int, int) {
	done := 0
	for _, t := range tasks {
		if t.Status == task.StatusCompleted {
			done++
		}
	}
	return project.Classify(len(tasks), done), len(tasks), done
}

func countProjects(projects []project.Project, byProject map[string][]task.Task, include func(project.Project) bool) project.Counts {
	var counts project.Counts
	for _, p := range projects {
		if !include(p) {
			continue
		}
		c, _, _ := completion(byProject[p.ID])
		counts.Add(c)
	}
	return counts
}

// headcount returns the employees and managers who are members of a department.
func headcount(departmentID string, users []user.User) (employees, managers int) {
	for _, u := range users {
		if !u.InDepartment(departmentID) {
			continue
		}
		switch u.Role {
		case user.RoleEmployee:
			employees++
		case user.RoleManager:
			managers++
		}
	}
	return employees, managers
}

// UserStats derives task statistics for one user. Efficiency is the share of
// assigned tasks completed, in percent; hours sum the estimates of completed
// tasks.
func UserStats(userID string, tasks []task.Task) user.Stats {
	var stats user.Stats
	assigned, open := 0, 0
	for _, t := range tasks {
		if !t.AssignedTo(userID) {
			continue
		}
		assigned++
		switch t.Status {
		case task.StatusCompleted:
			stats.CompletedTasks++
			stats.TotalHours += t.EstimatedTime
		case task.StatusInProgress:
			stats.InProgressTasks++
		}
		if t.Open() {
			open++
		}
	}
	if assigned > 0 {
		stats.Efficiency = math.Round(float64(stats.CompletedTasks)/float64(assigned)*1000) / 10
	}
	switch {
	case open <= lowWorkloadMax:
		stats.Workload = user.WorkloadLow
	case open <= mediumWorkloadMax:
		stats.Workload = user.WorkloadMedium
	default:
		stats.Workload = user.WorkloadHigh
	}
	return stats
}

func companyRows(c *cache.Cache) []CompanyRow {
	companies := c.Companies.Snapshot()
	departments := c.Departments.Values()
	users := c.Users.Values()
	projects := c.Projects.Values()
	byProject := groupByProject(c.Tasks.Values())

	rows := make([]CompanyRow, 0, len(companies))
	for _, e := range companies {
		co := e.Value
		var deptIDs []string
		for _, d := range departments {
			if d.BelongsTo(co.ID) {
				deptIDs = append(deptIDs, d.ID)
			}
		}
		employees := 0
		for _, u := range users {
			if slices.Contains(u.CompanyIDs, co.ID) {
				employees++
			}
		}
		rows = append(rows, CompanyRow{
			Company:     co,
			Provenance:  e.Provenance,
			Departments: len(deptIDs),
			Employees:   employees,
			Projects: countProjects(projects, byProject, func(p project.Project) bool {
				return p.CompanyID == co.ID || slices.ContainsFunc(p.DepartmentIDs, func(id string) bool {
					return slices.Contains(deptIDs, id)
				})
			}),
		})
	}
	return rows
}

func departmentRows(c *cache.Cache) []DepartmentRow {
	departments := c.Departments.Snapshot()
	users := c.Users.Values()
	projects := c.Projects.Values()
	byProject := groupByProject(c.Tasks.Values())

	rows := make([]DepartmentRow, 0, len(departments))
	for _, e := range departments {
		d := e.Value
		employees, managers := headcount(d.ID, users)
		rows = append(rows, DepartmentRow{
			Department: d,
			Provenance: e.Provenance,
			Employees:  employees,
			Managers:   managers,
			Projects: countProjects(projects, byProject, func(p project.Project) bool {
				return p.InDepartment(d.ID)
			}),
		})
	}
	return rows
}

func userRows(c *cache.Cache) []UserRow {
	users := c.Users.Snapshot()
	tasks := c.Tasks.Values()
	rows := make([]UserRow, 0, len(users))
	for _, e := range users {
		u := e.Value
		stats := UserStats(u.ID, tasks)
		u.Stats = &stats
		rows = append(rows, UserRow{User: u, Provenance: e.Provenance})
	}
	return rows
}

func roleRows(c *cache.Cache) []RoleRow {
	roles := c.Roles.Snapshot()
	rows := make([]RoleRow, 0, len(roles))
	for _, e := range roles {
		rows = append(rows, RoleRow{Role: e.Value, Provenance: e.Provenance})
	}
	return rows
}

func projectRows(c *cache.Cache) []ProjectRow {
	projects := c.Projects.Snapshot()
	byProject := groupByProject(c.Tasks.Values())
	rows := make([]ProjectRow, 0, len(projects))
	for _, e := range projects {
		comp, total, done := completion(byProject[e.Value.ID])
		rows = append(rows, ProjectRow{
			Project:        e.Value,
			Provenance:     e.Provenance,
			Completion:     comp,
			TotalTasks:     total,
			CompletedTasks: done,
		})
	}
	return rows
}

func taskBoard(c *cache.Cache, projectID string) TaskBoard {
	entries := c.Tasks.Snapshot()
	byID := make(map[string]task.Task, len(entries))
	for _, e := range entries {
		byID[e.Value.ID] = e.Value
	}

	board := TaskBoard{ProjectID: projectID, Tasks: make([]TaskRow, 0, len(entries))}
	for _, e := range entries {
		t := e.Value
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		board.Tasks = append(board.Tasks, TaskRow{
			Task:       t,
			Provenance: e.Provenance,
			Blocked:    blocked(t, byID),
		})
	}
	return board
}

func blocked(t task.Task, byID map[string]task.Task) bool {
	var dep *task.Task
	if d, ok := byID[t.Dependency]; ok {
		dep = &d
	}
	return task.ValidateTransition(t, task.StatusInProgress, dep) != nil
}
