package integration_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/workdesk/internal/cache"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/reconcile"
	"github.com/rpggio/workdesk/internal/sqlite"
	"github.com/rpggio/workdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	backend     *testserver.Backend
	db          *sqlite.DB
	activitySvc *activity.Service
	service     *reconcile.Service
	workspaces  *reconcile.Workspaces
}

func endpoints(b *testserver.Backend) map[gateway.Resource][]string {
	out := map[gateway.Resource][]string{}
	for _, res := range gateway.AllResources {
		out[res] = []string{b.URL(string(res))}
	}
	return out
}

// open wires the full stack against b with storage in dbPath.
func open(t *testing.T, b *testserver.Backend, dbPath string) *testEnv {
	t.Helper()
	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)

	client := gateway.New(gateway.Config{Endpoints: endpoints(b), Timeout: 2 * time.Second})
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	return &testEnv{
		backend:     b,
		db:          db,
		activitySvc: activitySvc,
		service:     reconcile.NewService(client, activitySvc, nil),
		workspaces:  reconcile.NewWorkspaces(gateway.Auth{}, sqlite.NewSnapshotRepository(db), nil),
	}
}

func TestLocalChangesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "workdesk.db")
	b := testserver.New(t)
	b.FailWith("companies", http.StatusBadGateway)

	env := open(t, b, dbPath)
	ws := env.workspaces.Get(ctx, "alice")
	out := env.service.CreateCompany(ctx, ws, company.CreateRequest{Name: "Offline Inc"})
	require.True(t, out.Local)
	require.NoError(t, env.db.Close())

	env = open(t, b, dbPath)
	t.Cleanup(func() { env.db.Close() })
	ws = env.workspaces.Get(ctx, "alice")

	restored := ws.Cache.Companies.Snapshot()
	require.Len(t, restored, 1)
	require.Equal(t, "Offline Inc", restored[0].Value.Name)
	require.Equal(t, cache.PendingLocal, restored[0].Provenance)

	saved := activity.OutcomeSavedLocally
	entries, err := env.activitySvc.Recent(ctx, "alice", activity.ListOptions{Outcome: &saved})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, reconcile.SavedLocallyMessage, entries[0].Message)

	other := env.workspaces.Get(ctx, "bob")
	require.Zero(t, other.Cache.Companies.Len())

	b.Recover("companies")
	b.Seed("companies", map[string]any{"id": "c1", "name": "Offline Inc", "createdAt": "2024-05-01T00:00:00Z"})
	view := env.service.LoadCompanies(ctx, ws)
	require.Equal(t, reconcile.StateReady, view.State)
	require.Len(t, view.Data, 1)
	require.Equal(t, "c1", view.Data[0].ID)
	require.Equal(t, cache.Synced, view.Data[0].Provenance)
}

func TestResetDiscardsSavedCache(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "workdesk.db")
	b := testserver.New(t)
	b.FailWith("companies", http.StatusServiceUnavailable)

	env := open(t, b, dbPath)
	ws := env.workspaces.Get(ctx, "alice")
	require.True(t, env.service.CreateCompany(ctx, ws, company.CreateRequest{Name: "Offline Inc"}).Local)
	env.workspaces.Get(ctx, "bob").Cache.Companies.Replace([]company.Company{{ID: "c7", Name: "Kept"}})

	require.NoError(t, env.workspaces.Reset(ctx, "alice"))
	require.Zero(t, env.workspaces.Get(ctx, "alice").Cache.Companies.Len())
	require.NoError(t, env.db.Close())

	env = open(t, b, dbPath)
	t.Cleanup(func() { env.db.Close() })
	require.Zero(t, env.workspaces.Get(ctx, "alice").Cache.Companies.Len())
	require.Equal(t, 1, env.workspaces.Get(ctx, "bob").Cache.Companies.Len())
}

func TestMixedResponseShapes(t *testing.T) {
	ctx := context.Background()
	b := testserver.New(t)
	b.SetShape("companies", testserver.ShapeItems)
	b.SetShape("departments", testserver.ShapeData)
	b.SetShape("users", testserver.ShapeProxy)
	b.Seed("companies", map[string]any{"id": "c1", "name": "Acme", "createdAt": "2024-01-01T00:00:00Z"})
	b.Seed("departments",
		map[string]any{"id": "d1", "name": "Eng", "companyIds": []any{"c1"}, "timestamp": "2024-01-02T00:00:00Z"},
		map[string]any{"id": "d2", "name": "Sales", "companyIds": []any{"c1"}, "timestamp": "2024-01-03T00:00:00Z"},
	)
	b.Seed("users",
		map[string]any{"id": "u1", "name": "Ann", "role": "MANAGER", "companyIds": []any{"c1"}, "departmentIds": []any{"d1"}},
		map[string]any{"id": "u2", "name": "Bo", "role": "EMPLOYEE", "companyIds": []any{"c1"}, "departmentIds": []any{"d1"}},
	)

	env := open(t, b, ":memory:")
	t.Cleanup(func() { env.db.Close() })
	ws := env.workspaces.Get(ctx, "default")

	view := env.service.LoadCompanies(ctx, ws)
	require.Equal(t, reconcile.StateReady, view.State)
	require.Len(t, view.Data, 1)
	require.Equal(t, 2, view.Data[0].Departments)
	require.Equal(t, 2, view.Data[0].Employees)

	depts := env.service.LoadDepartments(ctx, ws)
	require.Len(t, depts.Data, 2)
	require.Equal(t, "d2", depts.Data[0].ID)
	require.Equal(t, 1, depts.Data[1].Employees)
	require.Equal(t, 1, depts.Data[1].Managers)
}

func TestTaskWorkflowEndToEnd(t *testing.T) {
	ctx := context.Background()
	b := testserver.New(t)
	b.Seed("projects", map[string]any{"id": "p1", "name": "Launch", "createdAt": "2024-01-01T00:00:00Z"})
	b.Seed("users", map[string]any{"id": "u1", "name": "Ann", "role": "EMPLOYEE"})

	env := open(t, b, ":memory:")
	t.Cleanup(func() { env.db.Close() })
	ws := env.workspaces.Get(ctx, "default")
	env.service.LoadProjects(ctx, ws)

	design := env.service.CreateTask(ctx, ws, task.CreateRequest{Name: "Design", ProjectID: "p1", AssigneeIDs: []string{"u1"}, EstimatedTime: 3})
	require.True(t, design.Synced)
	build := env.service.CreateTask(ctx, ws, task.CreateRequest{Name: "Build", ProjectID: "p1", Status: task.StatusOnHold, Dependency: design.Record.ID})
	require.True(t, build.Synced)

	blocked := env.service.UpdateTaskStatus(ctx, ws, build.Record.ID, task.StatusInProgress)
	require.ErrorIs(t, blocked.Err, task.ErrBlockedByDependency)

	done := env.service.UpdateTaskStatus(ctx, ws, design.Record.ID, task.StatusCompleted)
	require.True(t, done.Synced)
	started := env.service.UpdateTaskStatus(ctx, ws, build.Record.ID, task.StatusInProgress)
	require.True(t, started.Synced)

	users := env.service.LoadUsers(ctx, ws)
	require.Len(t, users.Data, 1)
	require.Equal(t, 1, users.Data[0].Stats.CompletedTasks)
	require.Equal(t, 3.0, users.Data[0].Stats.TotalHours)

	failed := activity.OutcomeFailed
	entries, err := env.activitySvc.Recent(ctx, "default", activity.ListOptions{Outcome: &failed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "update_status", entries[0].Operation)
}
