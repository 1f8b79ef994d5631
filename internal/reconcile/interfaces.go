package reconcile

import (
	"context"

	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
	"github.com/rpggio/workdesk/internal/gateway"
)

// Gateway is the remote data surface used by the service. *gateway.Client
// implements it.
type Gateway interface {
	ListCompanies(ctx context.Context, sess *gateway.Session) gateway.Result[[]company.Company]
	CreateCompany(ctx context.Context, sess *gateway.Session, req company.CreateRequest) gateway.Result[company.Company]
	UpdateCompany(ctx context.Context, sess *gateway.Session, req company.UpdateRequest) gateway.Result[company.Company]
	DeleteCompany(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string]

	ListDepartments(ctx context.Context, sess *gateway.Session) gateway.Result[[]department.Department]
	CreateDepartment(ctx context.Context, sess *gateway.Session, req department.CreateRequest) gateway.Result[department.Department]
	UpdateDepartment(ctx context.Context, sess *gateway.Session, req department.UpdateRequest) gateway.Result[department.Department]
	DeleteDepartment(ctx context.Context, sess *gateway.Session, id, timestamp string) gateway.Result[string]

	ListUsers(ctx context.Context, sess *gateway.Session) gateway.Result[[]user.User]
	CreateUser(ctx context.Context, sess *gateway.Session, req user.CreateRequest) gateway.Result[user.User]
	UpdateUser(ctx context.Context, sess *gateway.Session, req user.UpdateRequest) gateway.Result[user.User]
	DeleteUser(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string]

	ListRoles(ctx context.Context, sess *gateway.Session) gateway.Result[[]role.Role]
	CreateRole(ctx context.Context, sess *gateway.Session, req role.CreateRequest) gateway.Result[role.Role]
	UpdateRole(ctx context.Context, sess *gateway.Session, req role.UpdateRequest) gateway.Result[role.Role]
	DeleteRole(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string]

	ListProjects(ctx context.Context, sess *gateway.Session) gateway.Result[[]project.Project]
	CreateProject(ctx context.Context, sess *gateway.Session, req project.CreateRequest) gateway.Result[project.Project]
	UpdateProject(ctx context.Context, sess *gateway.Session, req project.UpdateRequest) gateway.Result[project.Project]
	DeleteProject(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string]
	UpdateRoadmap(ctx context.Context, sess *gateway.Session, req gateway.RoadmapUpdate) gateway.Result[project.Project]

	ListTasks(ctx context.Context, sess *gateway.Session, projectID string) gateway.Result[[]task.Task]
	CreateTask(ctx context.Context, sess *gateway.Session, req task.CreateRequest) gateway.Result[task.Task]
	UpdateTask(ctx context.Context, sess *gateway.Session, t task.Task) gateway.Result[task.Task]
	DeleteTask(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string]
}

// ActivityRecorder receives one entry per user-visible outcome.
type ActivityRecorder interface {
	Record(ctx context.Context, workspaceID string, entry *activity.Entry) error
}

var _ Gateway = (*gateway.Client)(nil)
