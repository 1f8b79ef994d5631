package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/reconcile"
)

type tools struct {
	reconciler Reconciler
	workspaces WorkspaceProvider
	activity   ActivityService
}

func (t *tools) workspace(ctx context.Context) (*reconcile.Workspace, error) {
	tenantID := getTenantID(ctx)
	if tenantID == "" {
		return nil, fmt.Errorf("unauthorized: no tenant")
	}
	return t.workspaces.Get(ctx, tenantID), nil
}

type emptyInput struct{}

// screenOutput is a rendered screen. Data is always present, even when
// warnings show it came from the local cache.
type screenOutput struct {
	State        reconcile.State     `json:"state"`
	Data         any                 `json:"data"`
	Warnings     []reconcile.Warning `json:"warnings,omitempty"`
	AuthRequired bool                `json:"auth_required,omitempty"`
}

func screen[T any](v reconcile.View[T]) screenOutput {
	return screenOutput{State: v.State, Data: v.Data, Warnings: v.Warnings, AuthRequired: v.AuthRequired()}
}

// mutationOutput reports a change that was accepted by the server or saved
// locally. Refused changes are tool errors.
type mutationOutput struct {
	Record  any    `json:"record"`
	Synced  bool   `json:"synced"`
	Local   bool   `json:"local"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func mutation[T any](o reconcile.Outcome[T]) (*sdkmcp.CallToolResult, mutationOutput, error) {
	if o.Err != nil {
		return nil, mutationOutput{}, outcomeError(o)
	}
	return nil, mutationOutput{Record: o.Record, Synced: o.Synced, Local: o.Local, Message: o.Message, Detail: o.Detail}, nil
}

type listTasksInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Limit the board to one project"`
}

type createCompanyInput struct {
	Name    string `json:"name" jsonschema:"Company name"`
	OwnerID string `json:"owner_id,omitempty" jsonschema:"Owning user ID"`
}

type createDepartmentInput struct {
	Name       string   `json:"name" jsonschema:"Department name"`
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Companies the department belongs to"`
}

type updateDepartmentInput struct {
	ID         string   `json:"id" jsonschema:"Department ID"`
	Name       string   `json:"name" jsonschema:"Department name"`
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Companies the department belongs to"`
}

type idInput struct {
	ID string `json:"id" jsonschema:"Record ID"`
}

type createTaskInput struct {
	Name          string   `json:"name" jsonschema:"Task name"`
	ProjectID     string   `json:"project_id" jsonschema:"Owning project ID"`
	Description   string   `json:"description,omitempty"`
	AssigneeIDs   []string `json:"assignee_ids,omitempty" jsonschema:"Assigned user IDs"`
	Status        string   `json:"status,omitempty" jsonschema:"TODO, IN_PROGRESS, ON_HOLD or COMPLETED (default TODO)"`
	Priority      string   `json:"priority,omitempty" jsonschema:"low, medium or high (default medium)"`
	DueDate       string   `json:"due_date,omitempty"`
	EstimatedTime float64  `json:"estimated_time,omitempty" jsonschema:"Estimate in hours"`
	Dependency    string   `json:"dependency,omitempty" jsonschema:"ID of a task that must complete first"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID"`
	Status string `json:"status" jsonschema:"TODO, IN_PROGRESS, ON_HOLD or COMPLETED"`
}

type updateRoleInput struct {
	ID          string   `json:"id" jsonschema:"Role ID"`
	Name        string   `json:"name" jsonschema:"Role name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty" jsonschema:"Permission tags"`
	Color       string   `json:"color,omitempty"`
	BgColor     string   `json:"bg_color,omitempty"`
}

type milestoneInput struct {
	ID          string `json:"id,omitempty" jsonschema:"Milestone ID (generated when empty)"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Status      string `json:"status,omitempty" jsonschema:"PENDING, IN_PROGRESS or COMPLETED"`
}

type updateRoadmapInput struct {
	ProjectID  string           `json:"project_id" jsonschema:"Project ID"`
	Milestones []milestoneInput `json:"milestones" jsonschema:"Full ordered roadmap"`
}

type setCredentialsInput struct {
	APIKey string `json:"api_key,omitempty" jsonschema:"Value for the x-api-key header"`
	Token  string `json:"token,omitempty" jsonschema:"Bearer token"`
}

type setCredentialsOutput struct {
	Message string `json:"message"`
}

type recentActivityInput struct {
	Resource string `json:"resource,omitempty" jsonschema:"Filter by resource (companies, departments, users, roles, projects, tasks)"`
	Outcome  string `json:"outcome,omitempty" jsonschema:"Filter by outcome (synced, saved_locally, failed, warning)"`
	Limit    int    `json:"limit,omitempty"`
}

type activityEntry struct {
	Operation string `json:"operation"`
	Resource  string `json:"resource"`
	RecordID  string `json:"record_id,omitempty"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type recentActivityOutput struct {
	Entries []activityEntry `json:"entries"`
}

func registerTools(server *sdkmcp.Server, t *tools) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_companies",
		Description: "Load the companies screen with department, employee and project counts",
	}, t.listCompanies)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_departments",
		Description: "Load the departments screen with headcount and project completion",
	}, t.listDepartments)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_users",
		Description: "Load the users screen with derived task statistics",
	}, t.listUsers)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_roles",
		Description: "Load the roles screen",
	}, t.listRoles)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "Load the projects screen with completion classification",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "Load the task board, optionally for one project",
	}, t.listTasks)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sync",
		Description: "Reload every collection and report counts",
	}, t.sync)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_company",
		Description: "Create a company; saved locally when the server is unreachable",
	}, t.createCompany)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_department",
		Description: "Create a department",
	}, t.createDepartment)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_department",
		Description: "Update a loaded department using its cached timestamp",
	}, t.updateDepartment)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_department",
		Description: "Delete a loaded department using its cached timestamp",
	}, t.deleteDepartment)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_task",
		Description: "Create a task in a project",
	}, t.createTask)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_task_status",
		Description: "Move a loaded task to a new status; on-hold tasks stay blocked until their dependency completes",
	}, t.updateTaskStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_role",
		Description: "Replace a role's name, description, permissions and colors",
	}, t.updateRole)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_roadmap",
		Description: "Replace a loaded project's roadmap",
	}, t.updateRoadmap)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_credentials",
		Description: "Set the API key and bearer token used for this workspace",
	}, t.setCredentials)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List recent operation outcomes, newest first",
	}, t.recentActivity)
}

func (t *tools) listCompanies(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadCompanies(ctx, ws)), nil
}

func (t *tools) listDepartments(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadDepartments(ctx, ws)), nil
}

func (t *tools) listUsers(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadUsers(ctx, ws)), nil
}

func (t *tools) listRoles(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadRoles(ctx, ws)), nil
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadProjects(ctx, ws)), nil
}

func (t *tools) listTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, in listTasksInput) (*sdkmcp.CallToolResult, screenOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, screenOutput{}, err
	}
	return nil, screen(t.reconciler.LoadTasks(ctx, ws, in.ProjectID)), nil
}

func (t *tools) sync(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, reconcile.SyncStats, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, reconcile.SyncStats{}, err
	}
	return nil, t.reconciler.SyncAll(ctx, ws), nil
}

func (t *tools) createCompany(ctx context.Context, _ *sdkmcp.CallToolRequest, in createCompanyInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.CreateCompany(ctx, ws, company.CreateRequest{Name: in.Name, OwnerID: in.OwnerID}))
}

func (t *tools) createDepartment(ctx context.Context, _ *sdkmcp.CallToolRequest, in createDepartmentInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.CreateDepartment(ctx, ws, department.CreateRequest{Name: in.Name, CompanyIDs: in.CompanyIDs}))
}

func (t *tools) updateDepartment(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateDepartmentInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.UpdateDepartment(ctx, ws, department.UpdateRequest{ID: in.ID, Name: in.Name, CompanyIDs: in.CompanyIDs}))
}

func (t *tools) deleteDepartment(ctx context.Context, _ *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.DeleteDepartment(ctx, ws, in.ID))
}

func (t *tools) createTask(ctx context.Context, _ *sdkmcp.CallToolRequest, in createTaskInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.CreateTask(ctx, ws, task.CreateRequest{
		Name:          in.Name,
		Description:   in.Description,
		ProjectID:     in.ProjectID,
		AssigneeIDs:   in.AssigneeIDs,
		Status:        task.Status(in.Status),
		Priority:      task.Priority(in.Priority),
		DueDate:       in.DueDate,
		EstimatedTime: in.EstimatedTime,
		Dependency:    in.Dependency,
	}))
}

func (t *tools) updateTaskStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateTaskStatusInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.UpdateTaskStatus(ctx, ws, in.TaskID, task.Status(in.Status)))
}

func (t *tools) updateRole(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateRoleInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	return mutation(t.reconciler.UpdateRole(ctx, ws, role.UpdateRequest{
		ID: in.ID,
		CreateRequest: role.CreateRequest{
			Name:        in.Name,
			Description: in.Description,
			Permissions: in.Permissions,
			Color:       in.Color,
			BgColor:     in.BgColor,
		},
	}))
}

func (t *tools) updateRoadmap(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateRoadmapInput) (*sdkmcp.CallToolResult, mutationOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, mutationOutput{}, err
	}
	roadmap := make([]project.Milestone, 0, len(in.Milestones))
	for _, m := range in.Milestones {
		roadmap = append(roadmap, project.Milestone{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			StartDate:   m.StartDate,
			EndDate:     m.EndDate,
			Status:      project.MilestoneStatus(m.Status),
		})
	}
	return mutation(t.reconciler.UpdateRoadmap(ctx, ws, in.ProjectID, roadmap))
}

func (t *tools) setCredentials(ctx context.Context, _ *sdkmcp.CallToolRequest, in setCredentialsInput) (*sdkmcp.CallToolResult, setCredentialsOutput, error) {
	ws, err := t.workspace(ctx)
	if err != nil {
		return nil, setCredentialsOutput{}, err
	}
	ws.Session.SetAuth(gateway.Auth{APIKey: in.APIKey, Token: in.Token})
	return nil, setCredentialsOutput{Message: "credentials updated"}, nil
}

func (t *tools) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in recentActivityInput) (*sdkmcp.CallToolResult, recentActivityOutput, error) {
	tenantID := getTenantID(ctx)
	if tenantID == "" {
		return nil, recentActivityOutput{}, fmt.Errorf("unauthorized: no tenant")
	}
	opts := activity.ListOptions{Resource: in.Resource, Limit: in.Limit}
	if in.Outcome != "" {
		o := activity.Outcome(in.Outcome)
		opts.Outcome = &o
	}
	entries, err := t.activity.Recent(ctx, tenantID, opts)
	if err != nil {
		return nil, recentActivityOutput{}, err
	}
	out := recentActivityOutput{Entries: make([]activityEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, activityEntry{
			Operation: e.Operation,
			Resource:  e.Resource,
			RecordID:  e.RecordID,
			Outcome:   string(e.Outcome),
			Message:   e.Message,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}
