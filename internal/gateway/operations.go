package gateway

import (
	"context"
	"net/url"

	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
)

// Companies

func (c *Client) ListCompanies(ctx context.Context, sess *Session) Result[[]company.Company] {
	return list[company.Company](ctx, c, sess, Companies, nil)
}

func (c *Client) CreateCompany(ctx context.Context, sess *Session, req company.CreateRequest) Result[company.Company] {
	if err := req.Validate(); err != nil {
		return fail[company.Company](validationError(err))
	}
	return create[company.Company](ctx, c, sess, Companies, req)
}

func (c *Client) UpdateCompany(ctx context.Context, sess *Session, req company.UpdateRequest) Result[company.Company] {
	if err := req.Validate(); err != nil {
		return fail[company.Company](validationError(err))
	}
	return update[company.Company](ctx, c, sess, Companies, ByPath{ID: req.ID}, req)
}

func (c *Client) DeleteCompany(ctx context.Context, sess *Session, id string) Result[string] {
	return remove(ctx, c, sess, Companies, id, "")
}

// Departments

func (c *Client) ListDepartments(ctx context.Context, sess *Session) Result[[]department.Department] {
	return list[department.Department](ctx, c, sess, Departments, nil)
}

func (c *Client) CreateDepartment(ctx context.Context, sess *Session, req department.CreateRequest) Result[department.Department] {
	if err := req.Validate(); err != nil {
		return fail[department.Department](validationError(err))
	}
	if req.CompanyIDs == nil {
		req.CompanyIDs = []string{}
	}
	return create[department.Department](ctx, c, sess, Departments, req)
}

// UpdateDepartment patches a department under its last known timestamp.
func (c *Client) UpdateDepartment(ctx context.Context, sess *Session, req department.UpdateRequest) Result[department.Department] {
	if err := req.Validate(); err != nil {
		return fail[department.Department](validationError(err))
	}
	strategy := ByConcurrencyToken{ID: req.ID, Token: req.Timestamp, Latest: req.Latest}
	return update[department.Department](ctx, c, sess, Departments, strategy, req)
}

// DeleteDepartment requires the department's timestamp; without it no request is sent.
func (c *Client) DeleteDepartment(ctx context.Context, sess *Session, id, timestamp string) Result[string] {
	return remove(ctx, c, sess, Departments, id, timestamp)
}

// Users

func (c *Client) ListUsers(ctx context.Context, sess *Session) Result[[]user.User] {
	return list[user.User](ctx, c, sess, Users, nil)
}

func (c *Client) CreateUser(ctx context.Context, sess *Session, req user.CreateRequest) Result[user.User] {
	if err := req.Validate(); err != nil {
		return fail[user.User](validationError(err))
	}
	return create[user.User](ctx, c, sess, Users, req)
}

func (c *Client) UpdateUser(ctx context.Context, sess *Session, req user.UpdateRequest) Result[user.User] {
	if err := req.Validate(); err != nil {
		return fail[user.User](validationError(err))
	}
	return update[user.User](ctx, c, sess, Users, ByPath{ID: req.ID}, req)
}

func (c *Client) DeleteUser(ctx context.Context, sess *Session, id string) Result[string] {
	return remove(ctx, c, sess, Users, id, "")
}

// Roles

func (c *Client) ListRoles(ctx context.Context, sess *Session) Result[[]role.Role] {
	return list[role.Role](ctx, c, sess, Roles, nil)
}

func (c *Client) CreateRole(ctx context.Context, sess *Session, req role.CreateRequest) Result[role.Role] {
	if err := req.Validate(); err != nil {
		return fail[role.Role](validationError(err))
	}
	return create[role.Role](ctx, c, sess, Roles, req)
}

func (c *Client) UpdateRole(ctx context.Context, sess *Session, req role.UpdateRequest) Result[role.Role] {
	if err := req.Validate(); err != nil {
		return fail[role.Role](validationError(err))
	}
	return update[role.Role](ctx, c, sess, Roles, ByPath{ID: req.ID}, req)
}

func (c *Client) DeleteRole(ctx context.Context, sess *Session, id string) Result[string] {
	return remove(ctx, c, sess, Roles, id, "")
}

// Projects

func (c *Client) ListProjects(ctx context.Context, sess *Session) Result[[]project.Project] {
	return list[project.Project](ctx, c, sess, Projects, nil)
}

func (c *Client) CreateProject(ctx context.Context, sess *Session, req project.CreateRequest) Result[project.Project] {
	if err := req.Validate(); err != nil {
		return fail[project.Project](validationError(err))
	}
	return create[project.Project](ctx, c, sess, Projects, req)
}

func (c *Client) UpdateProject(ctx context.Context, sess *Session, req project.UpdateRequest) Result[project.Project] {
	if err := req.Validate(); err != nil {
		return fail[project.Project](validationError(err))
	}
	return update[project.Project](ctx, c, sess, Projects, ByPath{ID: req.ID}, req)
}

func (c *Client) DeleteProject(ctx context.Context, sess *Session, id string) Result[string] {
	return remove(ctx, c, sess, Projects, id, "")
}

// RoadmapUpdate replaces a project's roadmap under its createdAt token.
type RoadmapUpdate struct {
	ProjectID string              `json:"-"`
	CreatedAt string              `json:"-"`
	Latest    bool                `json:"-"`
	Roadmap   []project.Milestone `json:"roadmap"`
}

func (c *Client) UpdateRoadmap(ctx context.Context, sess *Session, req RoadmapUpdate) Result[project.Project] {
	if err := project.ValidateRoadmap(req.Roadmap); err != nil {
		return fail[project.Project](validationError(err))
	}
	if req.Roadmap == nil {
		req.Roadmap = []project.Milestone{}
	}
	strategy := ByConcurrencyToken{ID: req.ProjectID, Token: req.CreatedAt, Latest: req.Latest}
	return update[project.Project](ctx, c, sess, Projects, strategy, req)
}

// Tasks

// ListTasks lists tasks, filtered to one project when projectID is set.
func (c *Client) ListTasks(ctx context.Context, sess *Session, projectID string) Result[[]task.Task] {
	var query url.Values
	if projectID != "" {
		query = url.Values{"projectId": {projectID}}
	}
	res := list[task.Task](ctx, c, sess, Tasks, query)
	if !res.Success || projectID == "" {
		return res
	}
	// Some deployments ignore the filter.
	filtered := res.Data[:0]
	for _, t := range res.Data {
		if t.ProjectID == projectID {
			filtered = append(filtered, t)
		}
	}
	res.Data = filtered
	return res
}

func (c *Client) CreateTask(ctx context.Context, sess *Session, req task.CreateRequest) Result[task.Task] {
	if err := req.Validate(); err != nil {
		return fail[task.Task](validationError(err))
	}
	return create[task.Task](ctx, c, sess, Tasks, req)
}

// UpdateTask sends the full task. Both assignee shapes are written so either
// kind of backend reads it.
func (c *Client) UpdateTask(ctx context.Context, sess *Session, t task.Task) Result[task.Task] {
	if err := task.ValidateDependency(t.ID, t.Dependency); err != nil {
		return fail[task.Task](validationError(err))
	}
	assignees := t.Assignees()
	t.AssigneeIDs = assignees
	t.AssigneeID = ""
	if len(assignees) > 0 {
		t.AssigneeID = assignees[0]
	}
	return update[task.Task](ctx, c, sess, Tasks, ByPath{ID: t.ID}, t)
}

func (c *Client) DeleteTask(ctx context.Context, sess *Session, id string) Result[string] {
	return remove(ctx, c, sess, Tasks, id, "")
}
