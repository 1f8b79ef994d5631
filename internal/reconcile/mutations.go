package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/workdesk/internal/cache"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
	"github.com/rpggio/workdesk/internal/gateway"
)

// SavedLocallyMessage is shown when a change only reached the local cache.
const SavedLocallyMessage = "saved locally — server unavailable"

// LocalIDPrefix marks ids minted for records created while offline.
const LocalIDPrefix = "local-"

// ErrNotCached is returned when a mutation needs a record the cache lacks.
var ErrNotCached = errors.New("record not loaded")

// Outcome is the user-facing result of a mutation.
type Outcome[T any] struct {
	Record T `json:"record"`
	// Synced is set when the server accepted the change.
	Synced bool `json:"synced"`
	// Local is set when the change was applied to the cache only.
	Local   bool         `json:"local"`
	Kind    gateway.Kind `json:"kind,omitempty"`
	Message string       `json:"message"`
	// Detail carries the server's own message when there is one.
	Detail string `json:"detail,omitempty"`
	Err    error  `json:"-"`
}

// change describes one mutation. remote talks to the gateway, commit writes a
// value into the cache and local builds the value applied when the server
// cannot be reached. A nil local disables the fallback. offline marks a change
// to a record the server has never seen; it is applied locally without a
// request once check passes.
type change[T any] struct {
	operation string
	resource  gateway.Resource
	label     string
	remote    func(ctx context.Context) gateway.Result[T]
	commit    func(v T, p cache.Provenance)
	local     func() T
	id        func(T) string
	offline   bool
	check     func() error
}

func apply[T any](ctx context.Context, s *Service, ws *Workspace, c change[T]) Outcome[T] {
	if c.offline && c.local != nil {
		if c.check != nil {
			if err := c.check(); err != nil {
				return rejected[T](ctx, s, ws, c.operation, c.resource, gateway.KindValidation, err)
			}
		}
		v := c.local()
		c.commit(v, cache.PendingLocal)
		s.rerender(ws, c.resource)
		msg := fmt.Sprintf("%s %s locally, it has never been saved on the server", c.label, pastTense(c.operation))
		s.record(ctx, ws, c.operation, c.resource, c.id(v), activity.OutcomeSavedLocally, msg)
		return Outcome[T]{Record: v, Local: true, Message: msg}
	}

	res := c.remote(ctx)
	if res.Success {
		c.commit(res.Data, cache.Synced)
		msg := fmt.Sprintf("%s %s", c.label, pastTense(c.operation))
		s.record(ctx, ws, c.operation, c.resource, c.id(res.Data), activity.OutcomeSynced, msg)
		s.reload(ctx, ws, c.resource)
		return Outcome[T]{Record: res.Data, Synced: true, Message: msg}
	}

	err := res.Err()
	gwErr, _ := gateway.AsError(err)
	if gwErr != nil && gwErr.Fallback() && c.local != nil {
		v := c.local()
		c.commit(v, cache.PendingLocal)
		s.rerender(ws, c.resource)
		s.logger.Warn("change saved locally", "workspace", ws.ID, "operation", c.operation, "resource", c.resource, "kind", res.Kind, "error", res.Error)
		s.record(ctx, ws, c.operation, c.resource, c.id(v), activity.OutcomeSavedLocally, SavedLocallyMessage)
		return Outcome[T]{Record: v, Local: true, Kind: res.Kind, Message: SavedLocallyMessage, Detail: res.Error}
	}

	msg := failureMessage(c, res)
	s.record(ctx, ws, c.operation, c.resource, "", activity.OutcomeFailed, msg)
	return Outcome[T]{Kind: res.Kind, Message: msg, Detail: res.Error, Err: err}
}

func failureMessage[T any](c change[T], res gateway.Result[T]) string {
	verb, _, _ := strings.Cut(c.operation, "_")
	what := fmt.Sprintf("could not %s %s", verb, strings.ToLower(c.label))
	switch {
	case res.Kind == gateway.KindAuth:
		return what + ": sign in again"
	case res.Kind == gateway.KindConflict:
		return what + ": it changed on the server, refresh and retry"
	case res.Error == "":
		return what
	}
	return what + ": " + res.Error
}

func pastTense(operation string) string {
	switch operation {
	case "create":
		return "created"
	case "delete":
		return "deleted"
	}
	return "updated"
}

// rejected is an outcome for input refused before any request.
func rejected[T any](ctx context.Context, s *Service, ws *Workspace, operation string, res gateway.Resource, kind gateway.Kind, err error) Outcome[T] {
	gwErr := &gateway.Error{Kind: kind, Message: err.Error(), Cause: err}
	s.record(ctx, ws, operation, res, "", activity.OutcomeFailed, err.Error())
	return Outcome[T]{Kind: kind, Message: err.Error(), Err: gwErr}
}

func (s *Service) localID() string { return LocalIDPrefix + uuid.NewString() }

func (s *Service) stamp() string { return s.now().UTC().Format(time.RFC3339) }

func upsertTo[T cache.Entity](store *cache.Store[T]) func(T, cache.Provenance) {
	return store.Upsert
}

func prependTo[T cache.Entity](store *cache.Store[T]) func(T, cache.Provenance) {
	return store.Prepend
}

func removeFrom[T cache.Entity](store *cache.Store[T]) func(string, cache.Provenance) {
	return func(id string, _ cache.Provenance) { store.Remove(id) }
}

func entityID[T cache.Entity](v T) string { return v.EntityID() }

// localOnly reports whether id names a record created while offline. The
// server would answer 404 for it, so changes to it stay in the cache.
func localOnly[T cache.Entity](store *cache.Store[T], id string) bool {
	e, ok := store.Get(id)
	return ok && e.Provenance == cache.PendingLocal && strings.HasPrefix(id, LocalIDPrefix)
}

func sameID(id string) string { return id }

func deletion[T cache.Entity](res gateway.Resource, label, id string, store *cache.Store[T], remote func(context.Context) gateway.Result[string]) change[string] {
	return change[string]{
		operation: "delete",
		resource:  res,
		label:     label,
		remote:    remote,
		commit:    removeFrom(store),
		local:     func() string { return id },
		id:        sameID,
		offline:   localOnly(store, id),
	}
}

// Companies

func (s *Service) CreateCompany(ctx context.Context, ws *Workspace, req company.CreateRequest) Outcome[company.Company] {
	return apply(ctx, s, ws, change[company.Company]{
		operation: "create",
		resource:  gateway.Companies,
		label:     "Company",
		remote: func(ctx context.Context) gateway.Result[company.Company] {
			return s.gateway.CreateCompany(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Companies),
		local: func() company.Company {
			return company.Company{ID: s.localID(), Name: req.Name, OwnerID: req.OwnerID, CreatedAt: s.stamp()}
		},
		id: entityID[company.Company],
	})
}

func (s *Service) UpdateCompany(ctx context.Context, ws *Workspace, req company.UpdateRequest) Outcome[company.Company] {
	return apply(ctx, s, ws, change[company.Company]{
		operation: "update",
		resource:  gateway.Companies,
		label:     "Company",
		remote: func(ctx context.Context) gateway.Result[company.Company] {
			return s.gateway.UpdateCompany(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Companies),
		local: func() company.Company {
			c := company.Company{ID: req.ID}
			if e, ok := ws.Cache.Companies.Get(req.ID); ok {
				c = e.Value
			}
			c.Name, c.OwnerID = req.Name, req.OwnerID
			return c
		},
		id:      entityID[company.Company],
		offline: localOnly(ws.Cache.Companies, req.ID),
		check:   req.Validate,
	})
}

func (s *Service) DeleteCompany(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	return apply(ctx, s, ws, deletion(gateway.Companies, "Company", id, ws.Cache.Companies,
		func(ctx context.Context) gateway.Result[string] { return s.gateway.DeleteCompany(ctx, ws.Session, id) }))
}

// Departments

func (s *Service) CreateDepartment(ctx context.Context, ws *Workspace, req department.CreateRequest) Outcome[department.Department] {
	return apply(ctx, s, ws, change[department.Department]{
		operation: "create",
		resource:  gateway.Departments,
		label:     "Department",
		remote: func(ctx context.Context) gateway.Result[department.Department] {
			return s.gateway.CreateDepartment(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Departments),
		local: func() department.Department {
			now := s.stamp()
			return department.Department{ID: s.localID(), Name: req.Name, CompanyIDs: req.CompanyIDs, Timestamp: now, CreatedAt: now}
		},
		id: entityID[department.Department],
	})
}

// UpdateDepartment sends the cached timestamp as the version token unless the
// request carries one or asks for the latest version.
func (s *Service) UpdateDepartment(ctx context.Context, ws *Workspace, req department.UpdateRequest) Outcome[department.Department] {
	cached, found := ws.Cache.Departments.Get(req.ID)
	if req.Timestamp == "" && !req.Latest && found {
		req.Timestamp = cached.Value.Timestamp
	}
	return apply(ctx, s, ws, change[department.Department]{
		operation: "update",
		resource:  gateway.Departments,
		label:     "Department",
		remote: func(ctx context.Context) gateway.Result[department.Department] {
			return s.gateway.UpdateDepartment(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Departments),
		local: func() department.Department {
			d := department.Department{ID: req.ID, Timestamp: req.Timestamp}
			if found {
				d = cached.Value
			}
			d.Name, d.CompanyIDs = req.Name, req.CompanyIDs
			return d
		},
		id:      entityID[department.Department],
		offline: localOnly(ws.Cache.Departments, req.ID),
		check:   req.Validate,
	})
}

// DeleteDepartment deletes under the cached timestamp. A department without
// one is refused before any request is made.
func (s *Service) DeleteDepartment(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	token := ""
	if e, ok := ws.Cache.Departments.Get(id); ok {
		token = e.Value.Timestamp
	}
	return apply(ctx, s, ws, deletion(gateway.Departments, "Department", id, ws.Cache.Departments,
		func(ctx context.Context) gateway.Result[string] {
			return s.gateway.DeleteDepartment(ctx, ws.Session, id, token)
		}))
}

// Users

func (s *Service) CreateUser(ctx context.Context, ws *Workspace, req user.CreateRequest) Outcome[user.User] {
	return apply(ctx, s, ws, change[user.User]{
		operation: "create",
		resource:  gateway.Users,
		label:     "User",
		remote: func(ctx context.Context) gateway.Result[user.User] {
			return s.gateway.CreateUser(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Users),
		local: func() user.User {
			u := userFrom(req)
			u.ID, u.CreatedAt = s.localID(), s.stamp()
			return u
		},
		id: entityID[user.User],
	})
}

func (s *Service) UpdateUser(ctx context.Context, ws *Workspace, req user.UpdateRequest) Outcome[user.User] {
	return apply(ctx, s, ws, change[user.User]{
		operation: "update",
		resource:  gateway.Users,
		label:     "User",
		remote: func(ctx context.Context) gateway.Result[user.User] {
			return s.gateway.UpdateUser(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Users),
		local: func() user.User {
			u := userFrom(req.CreateRequest)
			u.ID = req.ID
			if e, ok := ws.Cache.Users.Get(req.ID); ok {
				u.CreatedAt = e.Value.CreatedAt
			}
			return u
		},
		id:      entityID[user.User],
		offline: localOnly(ws.Cache.Users, req.ID),
		check:   req.Validate,
	})
}

func userFrom(req user.CreateRequest) user.User {
	req.Normalize()
	return user.User{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		DepartmentIDs: req.DepartmentIDs,
		CompanyIDs:    req.CompanyIDs,
		ManagerIDs:    req.ManagerIDs,
		Rating:        req.Rating,
	}
}

func (s *Service) DeleteUser(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	return apply(ctx, s, ws, deletion(gateway.Users, "User", id, ws.Cache.Users,
		func(ctx context.Context) gateway.Result[string] { return s.gateway.DeleteUser(ctx, ws.Session, id) }))
}

// Roles

func (s *Service) CreateRole(ctx context.Context, ws *Workspace, req role.CreateRequest) Outcome[role.Role] {
	return apply(ctx, s, ws, change[role.Role]{
		operation: "create",
		resource:  gateway.Roles,
		label:     "Role",
		remote: func(ctx context.Context) gateway.Result[role.Role] {
			return s.gateway.CreateRole(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Roles),
		local: func() role.Role {
			r := roleFrom(req)
			r.ID, r.CreatedAt = s.localID(), s.stamp()
			return r
		},
		id: entityID[role.Role],
	})
}

func (s *Service) UpdateRole(ctx context.Context, ws *Workspace, req role.UpdateRequest) Outcome[role.Role] {
	return apply(ctx, s, ws, change[role.Role]{
		operation: "update",
		resource:  gateway.Roles,
		label:     "Role",
		remote: func(ctx context.Context) gateway.Result[role.Role] {
			return s.gateway.UpdateRole(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Roles),
		local: func() role.Role {
			r := roleFrom(req.CreateRequest)
			r.ID, r.UpdatedAt = req.ID, s.stamp()
			if e, ok := ws.Cache.Roles.Get(req.ID); ok {
				r.CreatedAt = e.Value.CreatedAt
				if r.CreatedBy == "" {
					r.CreatedBy = e.Value.CreatedBy
				}
			}
			return r
		},
		id:      entityID[role.Role],
		offline: localOnly(ws.Cache.Roles, req.ID),
		check:   req.Validate,
	})
}

func roleFrom(req role.CreateRequest) role.Role {
	req.Normalize()
	r := role.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Color:       req.Color,
		BgColor:     req.BgColor,
		CreatedBy:   req.CreatedBy,
	}
	if r.Color == "" {
		r.Color = role.DefaultColor
	}
	if r.BgColor == "" {
		r.BgColor = role.DefaultBgColor
	}
	return r
}

func (s *Service) DeleteRole(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	return apply(ctx, s, ws, deletion(gateway.Roles, "Role", id, ws.Cache.Roles,
		func(ctx context.Context) gateway.Result[string] { return s.gateway.DeleteRole(ctx, ws.Session, id) }))
}

// Projects

func (s *Service) CreateProject(ctx context.Context, ws *Workspace, req project.CreateRequest) Outcome[project.Project] {
	return apply(ctx, s, ws, change[project.Project]{
		operation: "create",
		resource:  gateway.Projects,
		label:     "Project",
		remote: func(ctx context.Context) gateway.Result[project.Project] {
			return s.gateway.CreateProject(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Projects),
		local: func() project.Project {
			return project.Project{
				ID:            s.localID(),
				Name:          req.Name,
				CompanyID:     req.CompanyID,
				DepartmentIDs: req.DepartmentIDs,
				ManagerID:     req.ManagerID,
				Roadmap:       []project.Milestone{},
				CreatedAt:     s.stamp(),
			}
		},
		id: entityID[project.Project],
	})
}

func (s *Service) UpdateProject(ctx context.Context, ws *Workspace, req project.UpdateRequest) Outcome[project.Project] {
	return apply(ctx, s, ws, change[project.Project]{
		operation: "update",
		resource:  gateway.Projects,
		label:     "Project",
		remote: func(ctx context.Context) gateway.Result[project.Project] {
			return s.gateway.UpdateProject(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Projects),
		local: func() project.Project {
			p := project.Project{ID: req.ID}
			if e, ok := ws.Cache.Projects.Get(req.ID); ok {
				p = e.Value
			}
			p.Name, p.CompanyID, p.DepartmentIDs, p.ManagerID = req.Name, req.CompanyID, req.DepartmentIDs, req.ManagerID
			return p
		},
		id:      entityID[project.Project],
		offline: localOnly(ws.Cache.Projects, req.ID),
		check:   req.Validate,
	})
}

// UpdateRoadmap replaces a project's roadmap under the cached createdAt token.
// Milestones without an id get one.
func (s *Service) UpdateRoadmap(ctx context.Context, ws *Workspace, projectID string, roadmap []project.Milestone) Outcome[project.Project] {
	cached, ok := ws.Cache.Projects.Get(projectID)
	if !ok {
		return rejected[project.Project](ctx, s, ws, "update_roadmap", gateway.Projects, gateway.KindNotFound,
			fmt.Errorf("%w: project %s", ErrNotCached, projectID))
	}
	roadmap = append([]project.Milestone(nil), roadmap...)
	for i := range roadmap {
		if roadmap[i].ID == "" {
			roadmap[i].ID = uuid.NewString()
		}
		if roadmap[i].Status == "" {
			roadmap[i].Status = project.MilestonePending
		}
	}
	req := gateway.RoadmapUpdate{ProjectID: projectID, CreatedAt: cached.Value.CreatedAt, Roadmap: roadmap}

	return apply(ctx, s, ws, change[project.Project]{
		operation: "update_roadmap",
		resource:  gateway.Projects,
		label:     "Roadmap",
		remote: func(ctx context.Context) gateway.Result[project.Project] {
			return s.gateway.UpdateRoadmap(ctx, ws.Session, req)
		},
		commit: upsertTo(ws.Cache.Projects),
		local: func() project.Project {
			p := cached.Value
			p.Roadmap = roadmap
			return p
		},
		id:      entityID[project.Project],
		offline: localOnly(ws.Cache.Projects, projectID),
		check:   func() error { return project.ValidateRoadmap(roadmap) },
	})
}

func (s *Service) DeleteProject(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	return apply(ctx, s, ws, deletion(gateway.Projects, "Project", id, ws.Cache.Projects,
		func(ctx context.Context) gateway.Result[string] { return s.gateway.DeleteProject(ctx, ws.Session, id) }))
}

// Tasks

func (s *Service) CreateTask(ctx context.Context, ws *Workspace, req task.CreateRequest) Outcome[task.Task] {
	return apply(ctx, s, ws, change[task.Task]{
		operation: "create",
		resource:  gateway.Tasks,
		label:     "Task",
		remote: func(ctx context.Context) gateway.Result[task.Task] {
			return s.gateway.CreateTask(ctx, ws.Session, req)
		},
		commit: prependTo(ws.Cache.Tasks),
		local: func() task.Task {
			req.Normalize()
			return task.Task{
				ID:            s.localID(),
				Name:          req.Name,
				Description:   req.Description,
				ProjectID:     req.ProjectID,
				AssigneeIDs:   req.AssigneeIDs,
				Status:        req.Status,
				Priority:      req.Priority,
				DueDate:       req.DueDate,
				EstimatedTime: req.EstimatedTime,
				Dependency:    req.Dependency,
				CreatedAt:     s.stamp(),
			}
		},
		id: entityID[task.Task],
	})
}

// UpdateTask replaces a task. Status changes are checked against the cached
// dependency first.
func (s *Service) UpdateTask(ctx context.Context, ws *Workspace, t task.Task) Outcome[task.Task] {
	if cached, ok := ws.Cache.Tasks.Get(t.ID); ok && cached.Value.Status != t.Status {
		if err := s.checkTransition(ws, cached.Value, t.Status); err != nil {
			return rejected[task.Task](ctx, s, ws, "update", gateway.Tasks, gateway.KindValidation, err)
		}
	}
	return apply(ctx, s, ws, change[task.Task]{
		operation: "update",
		resource:  gateway.Tasks,
		label:     "Task",
		remote: func(ctx context.Context) gateway.Result[task.Task] {
			return s.gateway.UpdateTask(ctx, ws.Session, t)
		},
		commit:  upsertTo(ws.Cache.Tasks),
		local:   func() task.Task { return t },
		id:      entityID[task.Task],
		offline: localOnly(ws.Cache.Tasks, t.ID),
		check:   func() error { return task.ValidateDependency(t.ID, t.Dependency) },
	})
}

// UpdateTaskStatus moves a cached task to a new status. A task on hold behind
// an unfinished dependency is rejected without a request and the cache is
// left as it was.
func (s *Service) UpdateTaskStatus(ctx context.Context, ws *Workspace, taskID string, to task.Status) Outcome[task.Task] {
	cached, ok := ws.Cache.Tasks.Get(taskID)
	if !ok {
		return rejected[task.Task](ctx, s, ws, "update_status", gateway.Tasks, gateway.KindNotFound,
			fmt.Errorf("%w: task %s", ErrNotCached, taskID))
	}
	if err := s.checkTransition(ws, cached.Value, to); err != nil {
		return rejected[task.Task](ctx, s, ws, "update_status", gateway.Tasks, gateway.KindValidation, err)
	}
	updated := cached.Value
	updated.Status = to
	return s.UpdateTask(ctx, ws, updated)
}

func (s *Service) checkTransition(ws *Workspace, current task.Task, to task.Status) error {
	var dep *task.Task
	if current.Dependency != "" {
		if e, ok := ws.Cache.Tasks.Get(current.Dependency); ok {
			dep = &e.Value
		}
	}
	return task.ValidateTransition(current, to, dep)
}

func (s *Service) DeleteTask(ctx context.Context, ws *Workspace, id string) Outcome[string] {
	return apply(ctx, s, ws, deletion(gateway.Tasks, "Task", id, ws.Cache.Tasks,
		func(ctx context.Context) gateway.Result[string] { return s.gateway.DeleteTask(ctx, ws.Session, id) }))
}
