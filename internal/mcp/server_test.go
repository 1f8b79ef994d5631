package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/mcp"
	"github.com/rpggio/workdesk/internal/reconcile"
	"github.com/rpggio/workdesk/internal/sqlite"
	"github.com/rpggio/workdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, b *testserver.Backend) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	endpoints := map[gateway.Resource][]string{}
	for _, res := range gateway.AllResources {
		endpoints[res] = []string{b.URL(string(res))}
	}
	client := gateway.New(gateway.Config{Endpoints: endpoints, Timeout: 2 * time.Second})
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)

	server := mcp.NewServer(mcp.Config{
		Reconciler:    reconcile.NewService(client, activitySvc, nil),
		Workspaces:    reconcile.NewWorkspaces(gateway.Auth{}, sqlite.NewSnapshotRepository(db), nil),
		Activity:      activitySvc,
		TransportMode: "stdio",
	})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	mcpClient := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := mcpClient.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func call(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "unexpected tool error: %s", text(res))
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func text(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type screen struct {
	State        string           `json:"state"`
	Data         json.RawMessage  `json:"data"`
	Warnings     []map[string]any `json:"warnings"`
	AuthRequired bool             `json:"auth_required"`
}

// mutation mirrors mutationOutput. Record is an object for creates and
// updates and the bare id for deletes.
type mutation struct {
	Record  json.RawMessage `json:"record"`
	Synced  bool            `json:"synced"`
	Local   bool            `json:"local"`
	Message string          `json:"message"`
}

func TestListTools(t *testing.T) {
	session := connect(t, testserver.New(t))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"list_companies", "list_departments", "list_users", "list_roles", "list_projects", "list_tasks",
		"create_company", "create_department", "delete_department", "create_task",
		"update_task_status", "update_role", "set_credentials", "recent_activity",
	} {
		require.Contains(t, names, want)
	}
}

func TestCreateCompanyThenList(t *testing.T) {
	session := connect(t, testserver.New(t))

	created := decode[mutation](t, call(t, session, "create_company", map[string]any{"name": "Acme"}))
	require.True(t, created.Synced)
	require.Equal(t, "Company created", created.Message)
	var record map[string]any
	require.NoError(t, json.Unmarshal(created.Record, &record))
	require.Equal(t, "c1", record["id"])

	listed := decode[screen](t, call(t, session, "list_companies", nil))
	require.Equal(t, "ready", listed.State)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(listed.Data, &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "Acme", rows[0]["name"])
	require.Equal(t, "synced", rows[0]["provenance"])
}

func TestCreateCompany_ValidationIsToolError(t *testing.T) {
	b := testserver.New(t)
	session := connect(t, b)

	res := call(t, session, "create_company", map[string]any{"name": "  "})
	require.True(t, res.IsError)
	require.Contains(t, text(res), "VALIDATION_FAILED")
	require.Empty(t, b.Requests())
}

func TestUpdateTaskStatus_NotLoaded(t *testing.T) {
	b := testserver.New(t)
	session := connect(t, b)

	res := call(t, session, "update_task_status", map[string]any{"task_id": "t9", "status": "COMPLETED"})
	require.True(t, res.IsError)
	require.Contains(t, text(res), "NOT_LOADED")
	require.Empty(t, b.Requests())
}

func TestUpdateTaskStatus_BlockedByDependency(t *testing.T) {
	b := testserver.New(t)
	b.Seed("projects", map[string]any{"id": "p1", "name": "Launch", "createdAt": "2024-01-01T00:00:00Z"})
	b.Seed("tasks",
		map[string]any{"id": "t1", "name": "Design", "projectId": "p1", "status": "IN_PROGRESS"},
		map[string]any{"id": "t2", "name": "Build", "projectId": "p1", "status": "ON_HOLD", "dependency": "t1"},
	)
	session := connect(t, b)

	decode[screen](t, call(t, session, "list_tasks", map[string]any{"project_id": "p1"}))
	before := len(b.Requests())

	res := call(t, session, "update_task_status", map[string]any{"task_id": "t2", "status": "IN_PROGRESS"})
	require.True(t, res.IsError)
	require.Contains(t, text(res), "BLOCKED_BY_DEPENDENCY")
	require.Len(t, b.Requests(), before)
}

func TestSetCredentials_ClearsAuthRequired(t *testing.T) {
	b := testserver.New(t)
	b.APIKey = "secret"
	session := connect(t, b)

	first := decode[screen](t, call(t, session, "list_roles", nil))
	require.True(t, first.AuthRequired)

	decode[map[string]any](t, call(t, session, "set_credentials", map[string]any{"api_key": "secret"}))

	second := decode[screen](t, call(t, session, "list_roles", nil))
	require.False(t, second.AuthRequired)
	require.Equal(t, "ready", second.State)
}

func TestRecentActivity(t *testing.T) {
	session := connect(t, testserver.New(t))

	decode[mutation](t, call(t, session, "create_company", map[string]any{"name": "Acme"}))
	res := call(t, session, "create_company", map[string]any{"name": ""})
	require.True(t, res.IsError)

	out := decode[struct {
		Entries []struct {
			Operation string `json:"operation"`
			Resource  string `json:"resource"`
			Outcome   string `json:"outcome"`
			Message   string `json:"message"`
		} `json:"entries"`
	}](t, call(t, session, "recent_activity", map[string]any{"outcome": "synced"}))

	require.Len(t, out.Entries, 1)
	require.Equal(t, "create", out.Entries[0].Operation)
	require.Equal(t, "companies", out.Entries[0].Resource)
	require.Equal(t, "Company created", out.Entries[0].Message)
}

func TestDeleteDepartment_UsesCachedTimestamp(t *testing.T) {
	b := testserver.New(t)
	b.Seed("departments", map[string]any{"id": "d1", "name": "Ops", "companyIds": []any{}, "timestamp": "2024-03-01T00:00:00Z"})
	session := connect(t, b)

	decode[screen](t, call(t, session, "list_departments", nil))
	deleted := decode[mutation](t, call(t, session, "delete_department", map[string]any{"id": "d1"}))
	require.True(t, deleted.Synced)
	require.Equal(t, "Department deleted", deleted.Message)
	var id string
	require.NoError(t, json.Unmarshal(deleted.Record, &id))
	require.Equal(t, "d1", id)
	require.Empty(t, b.Records("departments"))
}
