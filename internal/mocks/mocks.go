package mocks

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
	"github.com/stretchr/testify/mock"
)

// Gateway is a mock for reconcile.Gateway.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) ListCompanies(ctx context.Context, sess *gateway.Session) gateway.Result[[]company.Company] {
	args := m.Called(ctx, sess)
	return args.Get(0).(gateway.Result[[]company.Company])
}

func (m *Gateway) CreateCompany(ctx context.Context, sess *gateway.Session, req company.CreateRequest) gateway.Result[company.Company] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[company.Company])
}

func (m *Gateway) UpdateCompany(ctx context.Context, sess *gateway.Session, req company.UpdateRequest) gateway.Result[company.Company] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[company.Company])
}

func (m *Gateway) DeleteCompany(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string] {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(gateway.Result[string])
}

func (m *Gateway) ListDepartments(ctx context.Context, sess *gateway.Session) gateway.Result[[]department.Department] {
	args := m.Called(ctx, sess)
	return args.Get(0).(gateway.Result[[]department.Department])
}

func (m *Gateway) CreateDepartment(ctx context.Context, sess *gateway.Session, req department.CreateRequest) gateway.Result[department.Department] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[department.Department])
}

func (m *Gateway) UpdateDepartment(ctx context.Context, sess *gateway.Session, req department.UpdateRequest) gateway.Result[department.Department] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[department.Department])
}

func (m *Gateway) DeleteDepartment(ctx context.Context, sess *gateway.Session, id, timestamp string) gateway.Result[string] {
	args := m.Called(ctx, sess, id, timestamp)
	return args.Get(0).(gateway.Result[string])
}

func (m *Gateway) ListUsers(ctx context.Context, sess *gateway.Session) gateway.Result[[]user.User] {
	args := m.Called(ctx, sess)
	return args.Get(0).(gateway.Result[[]user.User])
}

func (m *Gateway) CreateUser(ctx context.Context, sess *gateway.Session, req user.CreateRequest) gateway.Result[user.User] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[user.User])
}

func (m *Gateway) UpdateUser(ctx context.Context, sess *gateway.Session, req user.UpdateRequest) gateway.Result[user.User] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[user.User])
}

func (m *Gateway) DeleteUser(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string] {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(gateway.Result[string])
}

func (m *Gateway) ListRoles(ctx context.Context, sess *gateway.Session) gateway.Result[[]role.Role] {
	args := m.Called(ctx, sess)
	return args.Get(0).(gateway.Result[[]role.Role])
}

func (m *Gateway) CreateRole(ctx context.Context, sess *gateway.Session, req role.CreateRequest) gateway.Result[role.Role] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[role.Role])
}

func (m *Gateway) UpdateRole(ctx context.Context, sess *gateway.Session, req role.UpdateRequest) gateway.Result[role.Role] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[role.Role])
}

func (m *Gateway) DeleteRole(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string] {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(gateway.Result[string])
}

func (m *Gateway) ListProjects(ctx context.Context, sess *gateway.Session) gateway.Result[[]project.Project] {
	args := m.Called(ctx, sess)
	return args.Get(0).(gateway.Result[[]project.Project])
}

func (m *Gateway) CreateProject(ctx context.Context, sess *gateway.Session, req project.CreateRequest) gateway.Result[project.Project] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[project.Project])
}

func (m *Gateway) UpdateProject(ctx context.Context, sess *gateway.Session, req project.UpdateRequest) gateway.Result[project.Project] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[project.Project])
}

func (m *Gateway) DeleteProject(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string] {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(gateway.Result[string])
}

func (m *Gateway) UpdateRoadmap(ctx context.Context, sess *gateway.Session, req gateway.RoadmapUpdate) gateway.Result[project.Project] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[project.Project])
}

func (m *Gateway) ListTasks(ctx context.Context, sess *gateway.Session, projectID string) gateway.Result[[]task.Task] {
	args := m.Called(ctx, sess, projectID)
	return args.Get(0).(gateway.Result[[]task.Task])
}

func (m *Gateway) CreateTask(ctx context.Context, sess *gateway.Session, req task.CreateRequest) gateway.Result[task.Task] {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(gateway.Result[task.Task])
}

func (m *Gateway) UpdateTask(ctx context.Context, sess *gateway.Session, t task.Task) gateway.Result[task.Task] {
	args := m.Called(ctx, sess, t)
	return args.Get(0).(gateway.Result[task.Task])
}

func (m *Gateway) DeleteTask(ctx context.Context, sess *gateway.Session, id string) gateway.Result[string] {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(gateway.Result[string])
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, workspaceID string, entry *activity.Entry) error {
	args := m.Called(ctx, workspaceID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, workspaceID string, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, workspaceID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRecorder is a mock for reconcile.ActivityRecorder.
type ActivityRecorder struct {
	mock.Mock
}

func (m *ActivityRecorder) Record(ctx context.Context, workspaceID string, entry *activity.Entry) error {
	args := m.Called(ctx, workspaceID, entry)
	return args.Error(0)
}
