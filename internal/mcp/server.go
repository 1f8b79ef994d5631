package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/reconcile"
)

// Reconciler defines the screen loads and mutations exposed as tools.
type Reconciler interface {
	LoadCompanies(ctx context.Context, ws *reconcile.Workspace) reconcile.View[[]reconcile.CompanyRow]
	LoadDepartments(ctx context.Context, ws *reconcile.Workspace) reconcile.View[[]reconcile.DepartmentRow]
	LoadUsers(ctx context.Context, ws *reconcile.Workspace) reconcile.View[[]reconcile.UserRow]
	LoadRoles(ctx context.Context, ws *reconcile.Workspace) reconcile.View[[]reconcile.RoleRow]
	LoadProjects(ctx context.Context, ws *reconcile.Workspace) reconcile.View[[]reconcile.ProjectRow]
	LoadTasks(ctx context.Context, ws *reconcile.Workspace, projectID string) reconcile.View[reconcile.TaskBoard]
	SyncAll(ctx context.Context, ws *reconcile.Workspace) reconcile.SyncStats

	CreateCompany(ctx context.Context, ws *reconcile.Workspace, req company.CreateRequest) reconcile.Outcome[company.Company]
	CreateDepartment(ctx context.Context, ws *reconcile.Workspace, req department.CreateRequest) reconcile.Outcome[department.Department]
	UpdateDepartment(ctx context.Context, ws *reconcile.Workspace, req department.UpdateRequest) reconcile.Outcome[department.Department]
	DeleteDepartment(ctx context.Context, ws *reconcile.Workspace, id string) reconcile.Outcome[string]
	UpdateRole(ctx context.Context, ws *reconcile.Workspace, req role.UpdateRequest) reconcile.Outcome[role.Role]
	UpdateRoadmap(ctx context.Context, ws *reconcile.Workspace, projectID string, roadmap []project.Milestone) reconcile.Outcome[project.Project]
	CreateTask(ctx context.Context, ws *reconcile.Workspace, req task.CreateRequest) reconcile.Outcome[task.Task]
	UpdateTaskStatus(ctx context.Context, ws *reconcile.Workspace, taskID string, to task.Status) reconcile.Outcome[task.Task]
}

// WorkspaceProvider returns the workspace of a tenant.
type WorkspaceProvider interface {
	Get(ctx context.Context, id string) *reconcile.Workspace
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	Recent(ctx context.Context, workspaceID string, opts activity.ListOptions) ([]activity.Entry, error)
}

var (
	_ Reconciler        = (*reconcile.Service)(nil)
	_ WorkspaceProvider = (*reconcile.Workspaces)(nil)
	_ ActivityService   = (*activity.Service)(nil)
)

// Config contains server configuration.
type Config struct {
	Reconciler    Reconciler
	Workspaces    WorkspaceProvider
	Activity      ActivityService
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// DefaultTenant is the workspace used when requests are not authenticated.
const DefaultTenant = "default"

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "workdesk",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is always single-user.
	if cfg.TransportMode == "http" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(DefaultTenant))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{
		reconciler: cfg.Reconciler,
		workspaces: cfg.Workspaces,
		activity:   cfg.Activity,
	})

	return server
}
