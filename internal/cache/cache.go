// Package cache holds the last known good snapshot of every entity
// collection so screens stay usable while the remote endpoints are failing.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
)

// Collection names used for persistence.
const (
	CollectionCompanies   = "companies"
	CollectionDepartments = "departments"
	CollectionUsers       = "users"
	CollectionRoles       = "roles"
	CollectionProjects    = "projects"
	CollectionTasks       = "tasks"
)

// Persister stores collection snapshots between process runs.
type Persister interface {
	SaveSnapshot(ctx context.Context, workspaceID, collection string, payload []byte) error
	LoadSnapshots(ctx context.Context, workspaceID string) (map[string][]byte, error)
	ClearSnapshots(ctx context.Context, workspaceID string) error
}

// Cache is the per-workspace set of collection stores.
type Cache struct {
	Companies   *Store[company.Company]
	Departments *Store[department.Department]
	Users       *Store[user.User]
	Roles       *Store[role.Role]
	Projects    *Store[project.Project]
	Tasks       *Store[task.Task]
}

// New creates an in-memory cache.
func New() *Cache {
	return &Cache{
		Companies:   NewStore[company.Company](),
		Departments: NewStore[department.Department](),
		Users:       NewStore[user.User](),
		Roles:       NewStore[role.Role](),
		Projects:    NewStore[project.Project](),
		Tasks:       NewStore[task.Task](),
	}
}

// Open creates a cache restored from p and persisted to it on every change.
// Persistence failures are logged and otherwise ignored.
func Open(ctx context.Context, workspaceID string, p Persister, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := New()
	if p == nil {
		return c
	}

	snapshots, err := p.LoadSnapshots(ctx, workspaceID)
	if err != nil {
		logger.Warn("load cache snapshots failed", "workspace", workspaceID, "error", err)
	}
	attach(c.Companies, CollectionCompanies, snapshots, workspaceID, p, logger)
	attach(c.Departments, CollectionDepartments, snapshots, workspaceID, p, logger)
	attach(c.Users, CollectionUsers, snapshots, workspaceID, p, logger)
	attach(c.Roles, CollectionRoles, snapshots, workspaceID, p, logger)
	attach(c.Projects, CollectionProjects, snapshots, workspaceID, p, logger)
	attach(c.Tasks, CollectionTasks, snapshots, workspaceID, p, logger)
	return c
}

func attach[T Entity](s *Store[T], collection string, snapshots map[string][]byte, workspaceID string, p Persister, logger *slog.Logger) {
	if raw, ok := snapshots[collection]; ok {
		var entries []Entry[T]
		if err := json.Unmarshal(raw, &entries); err != nil {
			logger.Warn("discarding unreadable cache snapshot", "workspace", workspaceID, "collection", collection, "error", err)
		} else {
			s.restore(entries)
		}
	}

	s.onChange = func(entries []Entry[T]) {
		payload, err := json.Marshal(entries)
		if err != nil {
			logger.Warn("encode cache snapshot failed", "collection", collection, "error", err)
			return
		}
		if err := p.SaveSnapshot(context.Background(), workspaceID, collection, payload); err != nil {
			logger.Warn("save cache snapshot failed", "workspace", workspaceID, "collection", collection, "error", err)
		}
	}
}

// PendingCount returns how many locally saved changes the server has not seen.
func (c *Cache) PendingCount() int {
	return len(c.Companies.Pending()) + len(c.Departments.Pending()) + len(c.Users.Pending()) +
		len(c.Roles.Pending()) + len(c.Projects.Pending()) + len(c.Tasks.Pending())
}
