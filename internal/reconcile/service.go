// Package reconcile merges gateway results with the local cache for each
// screen and applies mutations with a local fallback.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/workdesk/internal/cache"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/gateway"
)

// Service runs screen loads and mutations for any number of workspaces.
type Service struct {
	gateway  Gateway
	activity ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a reconciliation service. activity may be nil.
func NewService(gw Gateway, recorder ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{gateway: gw, activity: recorder, logger: logger, now: time.Now}
}

// warnings collects load warnings from concurrent reads.
type warnings struct {
	mu   sync.Mutex
	list []Warning
}

func (w *warnings) add(res gateway.Resource, kind gateway.Kind, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, Warning{Resource: res, Kind: kind, Message: msg})
}

func (w *warnings) all() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.list
}

// syncCollection reads a collection and makes a non-empty result canonical. On failure
// or an empty result the cached baseline stays and a warning is added.
func syncCollection[T cache.Entity](ctx context.Context, s *Service, ws *Workspace, res gateway.Resource, store *cache.Store[T], fetch func(context.Context, *gateway.Session) gateway.Result[[]T], warn *warnings) {
	result := fetch(ctx, ws.Session)
	switch {
	case !result.Success:
		msg := result.Error
		if msg == "" {
			msg = "the server reported a failure"
		}
		s.logger.Warn("load failed, showing cached data", "workspace", ws.ID, "resource", res, "kind", result.Kind, "error", msg, "cached", store.Len())
		warn.add(res, result.Kind, fmt.Sprintf("could not load %s: %s", res, msg))
	case len(result.Data) == 0:
		s.logger.Debug("load returned nothing, keeping cache", "workspace", ws.ID, "resource", res, "cached", store.Len())
		if store.Len() > 0 {
			warn.add(res, "", fmt.Sprintf("server returned no %s; showing last known data", res))
		}
	default:
		store.Replace(result.Data)
	}
}

// syncProjectTasks reads tasks one project at a time, in order, because each
// request needs the project id from the preceding projects read.
func (s *Service) syncProjectTasks(ctx context.Context, ws *Workspace, warn *warnings) {
	failed := 0
	var last gateway.Result[[]task.Task]
	for _, p := range ws.Cache.Projects.Values() {
		if ctx.Err() != nil {
			return
		}
		result := s.gateway.ListTasks(ctx, ws.Session, p.ID)
		if !result.Success {
			failed++
			last = result
			continue
		}
		if len(result.Data) > 0 {
			projectID := p.ID
			ws.Cache.Tasks.ReplaceMatching(func(t task.Task) bool { return t.ProjectID == projectID }, result.Data)
		}
	}
	if failed > 0 {
		s.logger.Warn("task loads failed, showing cached tasks", "workspace", ws.ID, "failed", failed, "error", last.Error)
		warn.add(gateway.Tasks, last.Kind, fmt.Sprintf("could not load tasks for %d project(s): %s", failed, last.Error))
	}
}

type step func(ctx context.Context, warn *warnings)

// gather runs independent reads concurrently and waits for all of them.
// Reads never fail the group; problems become warnings.
func gather(ctx context.Context, warn *warnings, steps ...step) {
	var g errgroup.Group
	for _, st := range steps {
		g.Go(func() error {
			st(ctx, warn)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) companiesStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		syncCollection(ctx, s, ws, gateway.Companies, ws.Cache.Companies, s.gateway.ListCompanies, warn)
	}
}

func (s *Service) departmentsStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		syncCollection(ctx, s, ws, gateway.Departments, ws.Cache.Departments, s.gateway.ListDepartments, warn)
	}
}

func (s *Service) usersStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		syncCollection(ctx, s, ws, gateway.Users, ws.Cache.Users, s.gateway.ListUsers, warn)
	}
}

func (s *Service) rolesStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		syncCollection(ctx, s, ws, gateway.Roles, ws.Cache.Roles, s.gateway.ListRoles, warn)
	}
}

// projectsStep reads projects and then, strictly after, their tasks.
func (s *Service) projectsStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		syncCollection(ctx, s, ws, gateway.Projects, ws.Cache.Projects, s.gateway.ListProjects, warn)
		s.syncProjectTasks(ctx, ws, warn)
	}
}

func (s *Service) allTasksStep(ws *Workspace) step {
	return func(ctx context.Context, warn *warnings) {
		fetch := func(ctx context.Context, sess *gateway.Session) gateway.Result[[]task.Task] {
			return s.gateway.ListTasks(ctx, sess, "")
		}
		syncCollection(ctx, s, ws, gateway.Tasks, ws.Cache.Tasks, fetch, warn)
	}
}

func (s *Service) warnActivity(ctx context.Context, ws *Workspace, operation string, list []Warning) {
	for _, w := range list {
		s.record(ctx, ws, operation, w.Resource, "", activity.OutcomeWarning, w.Message)
	}
}

// LoadCompanies refreshes the companies screen with department, employee and
// project completion counts.
func (s *Service) LoadCompanies(ctx context.Context, ws *Workspace) View[[]CompanyRow] {
	gen := ws.Companies.Begin()
	warn := &warnings{}
	gather(ctx, warn, s.companiesStep(ws), s.departmentsStep(ws), s.usersStep(ws), s.projectsStep(ws))
	s.warnActivity(ctx, ws, "load_companies", warn.all())
	return publish(&ws.Companies, gen, companyRows(ws.Cache), warn.all())
}

// LoadDepartments refreshes the departments screen with headcount and project
// completion counts.
func (s *Service) LoadDepartments(ctx context.Context, ws *Workspace) View[[]DepartmentRow] {
	gen := ws.Departments.Begin()
	warn := &warnings{}
	gather(ctx, warn, s.departmentsStep(ws), s.usersStep(ws), s.projectsStep(ws))
	s.warnActivity(ctx, ws, "load_departments", warn.all())
	return publish(&ws.Departments, gen, departmentRows(ws.Cache), warn.all())
}

// LoadUsers refreshes the users screen with derived task statistics.
func (s *Service) LoadUsers(ctx context.Context, ws *Workspace) View[[]UserRow] {
	gen := ws.Users.Begin()
	warn := &warnings{}
	gather(ctx, warn, s.usersStep(ws), s.allTasksStep(ws))
	s.warnActivity(ctx, ws, "load_users", warn.all())
	return publish(&ws.Users, gen, userRows(ws.Cache), warn.all())
}

// LoadRoles refreshes the roles screen.
func (s *Service) LoadRoles(ctx context.Context, ws *Workspace) View[[]RoleRow] {
	gen := ws.Roles.Begin()
	warn := &warnings{}
	gather(ctx, warn, s.rolesStep(ws))
	s.warnActivity(ctx, ws, "load_roles", warn.all())
	return publish(&ws.Roles, gen, roleRows(ws.Cache), warn.all())
}

// LoadProjects refreshes the projects screen with completion classification.
func (s *Service) LoadProjects(ctx context.Context, ws *Workspace) View[[]ProjectRow] {
	gen := ws.Projects.Begin()
	warn := &warnings{}
	gather(ctx, warn, s.projectsStep(ws))
	s.warnActivity(ctx, ws, "load_projects", warn.all())
	return publish(&ws.Projects, gen, projectRows(ws.Cache), warn.all())
}

// LoadTasks refreshes the task board, scoped to projectID when set.
func (s *Service) LoadTasks(ctx context.Context, ws *Workspace, projectID string) View[TaskBoard] {
	gen := ws.Tasks.Begin()
	warn := &warnings{}
	if projectID == "" {
		gather(ctx, warn, s.allTasksStep(ws))
	} else {
		result := s.gateway.ListTasks(ctx, ws.Session, projectID)
		switch {
		case !result.Success:
			warn.add(gateway.Tasks, result.Kind, fmt.Sprintf("could not load tasks: %s", result.Error))
		case len(result.Data) > 0:
			ws.Cache.Tasks.ReplaceMatching(func(t task.Task) bool { return t.ProjectID == projectID }, result.Data)
		}
	}
	s.warnActivity(ctx, ws, "load_tasks", warn.all())
	return publish(&ws.Tasks, gen, taskBoard(ws.Cache, projectID), warn.all())
}

// SyncStats summarises a full refresh.
type SyncStats struct {
	Companies   int            `json:"companies"`
	Departments int            `json:"departments"`
	Users       int            `json:"users"`
	Roles       int            `json:"roles"`
	Projects    project.Counts `json:"projects"`
	Tasks       int            `json:"tasks"`
	Pending     int            `json:"pendingLocal"`
	Warnings    []Warning      `json:"warnings,omitempty"`
}

// SyncAll refreshes every collection once and reports what the cache now holds.
func (s *Service) SyncAll(ctx context.Context, ws *Workspace) SyncStats {
	var all []Warning
	all = append(all, s.LoadCompanies(ctx, ws).Warnings...)
	all = append(all, s.LoadRoles(ctx, ws).Warnings...)
	all = append(all, s.LoadUsers(ctx, ws).Warnings...)

	stats := SyncStats{
		Companies:   ws.Cache.Companies.Len(),
		Departments: ws.Cache.Departments.Len(),
		Users:       ws.Cache.Users.Len(),
		Roles:       ws.Cache.Roles.Len(),
		Tasks:       ws.Cache.Tasks.Len(),
		Pending:     ws.Cache.PendingCount(),
		Warnings:    all,
	}
	for _, row := range projectRows(ws.Cache) {
		stats.Projects.Add(row.Completion)
	}
	return stats
}

// derivedScreens lists, per collection, every screen whose rows are computed
// from it.
var derivedScreens = map[gateway.Resource][]gateway.Resource{
	gateway.Companies:   {gateway.Companies},
	gateway.Departments: {gateway.Departments, gateway.Companies},
	gateway.Users:       {gateway.Users, gateway.Departments, gateway.Companies},
	gateway.Roles:       {gateway.Roles},
	gateway.Projects:    {gateway.Projects, gateway.Departments, gateway.Companies},
	gateway.Tasks:       {gateway.Tasks, gateway.Projects, gateway.Users, gateway.Departments, gateway.Companies},
}

// rerender recomputes, from the cache alone, every screen derived from res.
func (s *Service) rerender(ws *Workspace, res gateway.Resource) {
	for _, screen := range derivedScreens[res] {
		switch screen {
		case gateway.Companies:
			ws.Companies.Refresh(companyRows(ws.Cache))
		case gateway.Departments:
			ws.Departments.Refresh(departmentRows(ws.Cache))
		case gateway.Users:
			ws.Users.Refresh(userRows(ws.Cache))
		case gateway.Roles:
			ws.Roles.Refresh(roleRows(ws.Cache))
		case gateway.Projects:
			ws.Projects.Refresh(projectRows(ws.Cache))
		case gateway.Tasks:
			ws.Tasks.Refresh(taskBoard(ws.Cache, ws.Tasks.View().Data.ProjectID))
		}
	}
}

// reload runs the full load of the screen owning res.
func (s *Service) reload(ctx context.Context, ws *Workspace, res gateway.Resource) {
	switch res {
	case gateway.Companies:
		s.LoadCompanies(ctx, ws)
	case gateway.Departments:
		s.LoadDepartments(ctx, ws)
	case gateway.Users:
		s.LoadUsers(ctx, ws)
	case gateway.Roles:
		s.LoadRoles(ctx, ws)
	case gateway.Projects:
		s.LoadProjects(ctx, ws)
	case gateway.Tasks:
		s.LoadTasks(ctx, ws, ws.Tasks.View().Data.ProjectID)
	}
}

func (s *Service) record(ctx context.Context, ws *Workspace, operation string, res gateway.Resource, recordID string, outcome activity.Outcome, msg string) {
	if s.activity == nil {
		return
	}
	entry := &activity.Entry{
		Operation: operation,
		Resource:  string(res),
		RecordID:  recordID,
		Outcome:   outcome,
		Message:   msg,
	}
	if err := s.activity.Record(ctx, ws.ID, entry); err != nil {
		s.logger.Warn("record activity failed", "workspace", ws.ID, "operation", operation, "error", err)
	}
}
