package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/workdesk/internal/cache"
	"github.com/rpggio/workdesk/internal/gateway"
)

// Workspace is the explicit per-user context threaded through every load and
// mutation: gateway credentials and availability plus the local cache.
type Workspace struct {
	ID      string
	Session *gateway.Session
	Cache   *cache.Cache

	Companies   Screen[[]CompanyRow]
	Departments Screen[[]DepartmentRow]
	Users       Screen[[]UserRow]
	Roles       Screen[[]RoleRow]
	Projects    Screen[[]ProjectRow]
	Tasks       Screen[TaskBoard]
}

// NewWorkspace creates a workspace. A nil cache gets a fresh in-memory one.
func NewWorkspace(id string, auth gateway.Auth, c *cache.Cache) *Workspace {
	if c == nil {
		c = cache.New()
	}
	return &Workspace{
		ID:      id,
		Session: gateway.NewSession(auth),
		Cache:   c,
	}
}

// Workspaces hands out one workspace per id. The cache of a workspace is
// restored from the persister the first time it is requested.
type Workspaces struct {
	mu        sync.Mutex
	auth      gateway.Auth
	persister cache.Persister
	logger    *slog.Logger
	open      map[string]*Workspace
}

// NewWorkspaces creates a registry whose new workspaces start with auth.
// A nil persister keeps every cache in memory.
func NewWorkspaces(auth gateway.Auth, p cache.Persister, logger *slog.Logger) *Workspaces {
	return &Workspaces{
		auth:      auth,
		persister: p,
		logger:    logger,
		open:      make(map[string]*Workspace),
	}
}

// Reset forgets the workspace for id and deletes its persisted snapshots, so
// the next Get starts from an empty cache. Local-only changes are lost.
func (w *Workspaces) Reset(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, id)
	if w.persister == nil {
		return nil
	}
	if err := w.persister.ClearSnapshots(ctx, id); err != nil {
		return fmt.Errorf("reset workspace %s: %w", id, err)
	}
	return nil
}

// Get returns the workspace for id, opening it on first use.
func (w *Workspaces) Get(ctx context.Context, id string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ws, ok := w.open[id]; ok {
		return ws
	}
	ws := NewWorkspace(id, w.auth, cache.Open(ctx, id, w.persister, w.logger))
	w.open[id] = ws
	return ws
}
