package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/department"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClient(b *testserver.Backend, clock *fakeClock, extra map[gateway.Resource][]string) *gateway.Client {
	endpoints := map[gateway.Resource][]string{}
	for _, res := range gateway.AllResources {
		endpoints[res] = []string{b.URL(string(res))}
	}
	for res, urls := range extra {
		endpoints[res] = urls
	}
	opts := []gateway.Option{}
	if clock != nil {
		opts = append(opts, gateway.WithClock(clock.Now))
	}
	return gateway.New(gateway.Config{Endpoints: endpoints, Timeout: 2 * time.Second}, opts...)
}

func TestListDepartments_ItemsShape(t *testing.T) {
	b := testserver.New(t)
	b.SetShape("departments", testserver.ShapeItems)
	b.Seed("departments", map[string]any{"id": "d1", "name": "Eng", "companyIds": []any{"c1"}})

	clock := &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	client := newClient(b, clock, nil)
	sess := gateway.NewSession(gateway.Auth{})

	res := client.ListDepartments(context.Background(), sess)
	require.True(t, res.Success, res.Error)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, b.URL("departments"), res.Endpoint)
	require.Equal(t, []department.Department{{
		ID:         "d1",
		Name:       "Eng",
		CompanyIDs: []string{"c1"},
		Timestamp:  "2024-06-01T09:00:00Z",
	}}, res.Data)
}

func TestCreateCompany_TrustsServerFields(t *testing.T) {
	b := testserver.New(t)
	client := newClient(b, nil, nil)
	sess := gateway.NewSession(gateway.Auth{})

	res := client.CreateCompany(context.Background(), sess, company.CreateRequest{Name: "Acme"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "c1", res.Data.ID)
	require.Equal(t, "Acme", res.Data.Name)
	require.Equal(t, "2024-01-01T00:01:00Z", res.Data.CreatedAt)
	require.Equal(t, http.StatusCreated, res.Status)
}

func TestCreateCompany_ValidationNeverReachesNetwork(t *testing.T) {
	b := testserver.New(t)
	client := newClient(b, nil, nil)

	res := client.CreateCompany(context.Background(), gateway.NewSession(gateway.Auth{}), company.CreateRequest{Name: " "})
	require.False(t, res.Success)
	require.Equal(t, gateway.KindValidation, res.Kind)
	require.ErrorIs(t, res.Err(), gateway.ErrValidation)
	require.Empty(t, b.Requests())
}

func TestAuthHeaders(t *testing.T) {
	b := testserver.New(t)
	b.APIKey = "secret"
	client := newClient(b, nil, nil)
	sess := gateway.NewSession(gateway.Auth{APIKey: "secret", Token: "tok"})

	res := client.ListCompanies(context.Background(), sess)
	require.True(t, res.Success, res.Error)

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "secret", reqs[0].Header.Get("x-api-key"))
	require.Equal(t, "Bearer tok", reqs[0].Header.Get("Authorization"))
}

func TestDeleteDepartment_MissingTokenShortCircuits(t *testing.T) {
	b := testserver.New(t)
	client := newClient(b, nil, nil)
	dept := department.Department{ID: "d1", Name: "Eng"}

	res := client.DeleteDepartment(context.Background(), gateway.NewSession(gateway.Auth{}), dept.ID, dept.Timestamp)
	require.False(t, res.Success)
	require.Equal(t, gateway.KindConcurrencyTokenMissing, res.Kind)
	require.ErrorIs(t, res.Err(), gateway.ErrConcurrencyTokenMissing)
	require.Contains(t, res.Error, "no timestamp")
	require.Empty(t, b.Requests())
}

func TestDeleteDepartment_WithToken(t *testing.T) {
	b := testserver.New(t)
	b.Seed("departments", map[string]any{"id": "d1", "name": "Eng", "timestamp": "2024-01-01T00:00:00Z"})
	client := newClient(b, nil, nil)
	sess := gateway.NewSession(gateway.Auth{})

	stale := client.DeleteDepartment(context.Background(), sess, "d1", "2023-01-01T00:00:00Z")
	require.False(t, stale.Success)
	require.ErrorIs(t, stale.Err(), gateway.ErrConflict)

	res := client.DeleteDepartment(context.Background(), sess, "d1", "2024-01-01T00:00:00Z")
	require.True(t, res.Success, res.Error)
	require.Equal(t, "d1", res.Data)
	require.Empty(t, b.Records("departments"))

	last := b.Requests()[len(b.Requests())-1]
	require.Equal(t, http.MethodDelete, last.Method)
	require.Equal(t, "2024-01-01T00:00:00Z", last.Query.Get("timestamp"))
}

func TestUpdateDepartment_TokenProtocols(t *testing.T) {
	b := testserver.New(t)
	b.Seed("departments", map[string]any{"id": "d1", "name": "Eng", "companyIds": []any{}, "timestamp": "2024-01-01T00:00:00Z"})
	client := newClient(b, nil, nil)
	sess := gateway.NewSession(gateway.Auth{})
	ctx := context.Background()

	missing := client.UpdateDepartment(ctx, sess, department.UpdateRequest{ID: "d1", Name: "Platform"})
	require.Equal(t, gateway.KindConcurrencyTokenMissing, missing.Kind)
	require.Empty(t, b.Requests())

	res := client.UpdateDepartment(ctx, sess, department.UpdateRequest{ID: "d1", Name: "Platform", Latest: true})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "Platform", res.Data.Name)
	require.NotEqual(t, "2024-01-01T00:00:00Z", res.Data.Timestamp)

	reqs := b.Requests()
	require.Equal(t, http.MethodPatch, reqs[0].Method)
	require.Equal(t, "1", reqs[0].Query.Get("latest"))

	res = client.UpdateDepartment(ctx, sess, department.UpdateRequest{ID: "d1", Name: "Infra", Timestamp: res.Data.Timestamp})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "Infra", res.Data.Name)
}

func TestUpdateRole_ByPath(t *testing.T) {
	b := testserver.New(t)
	b.Seed("roles", map[string]any{"id": "r1", "name": "Auditor", "permissions": []any{"read"}})
	client := newClient(b, nil, nil)

	res := client.UpdateRole(context.Background(), gateway.NewSession(gateway.Auth{}), role.UpdateRequest{
		ID:            "r1",
		CreateRequest: role.CreateRequest{Name: "Senior auditor", Permissions: []string{"read", "export"}},
	})
	require.True(t, res.Success, res.Error)
	require.Equal(t, []string{"read", "export"}, res.Data.Permissions)
	require.Equal(t, role.DefaultColor, res.Data.Color)

	req := b.Requests()[0]
	require.Equal(t, http.MethodPut, req.Method)
	require.Equal(t, "/roles/r1", req.Path)
	require.NotEmpty(t, req.Body["updatedAt"])
}

func TestUpdateRoadmap_UsesCreatedAtToken(t *testing.T) {
	b := testserver.New(t)
	b.Seed("projects", map[string]any{"id": "p1", "name": "Apollo", "createdAt": "2024-01-01T00:00:00Z"})
	client := newClient(b, nil, nil)
	sess := gateway.NewSession(gateway.Auth{})

	res := client.UpdateRoadmap(context.Background(), sess, gateway.RoadmapUpdate{
		ProjectID: "p1",
		CreatedAt: "2024-01-01T00:00:00Z",
		Roadmap:   []project.Milestone{{Name: "Launch", Status: project.MilestonePending}},
	})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "Apollo", res.Data.Name)
	require.Len(t, res.Data.Roadmap, 1)
	require.NotEmpty(t, res.Data.Roadmap[0].ID)

	missing := client.UpdateRoadmap(context.Background(), sess, gateway.RoadmapUpdate{ProjectID: "p1"})
	require.Equal(t, gateway.KindConcurrencyTokenMissing, missing.Kind)
}

func TestListTasks_ProjectFilter(t *testing.T) {
	b := testserver.New(t)
	b.Seed("tasks",
		map[string]any{"id": "t1", "name": "a", "projectId": "p1", "status": "COMPLETED"},
		map[string]any{"id": "t2", "name": "b", "projectId": "p2"},
	)
	client := newClient(b, nil, nil)

	res := client.ListTasks(context.Background(), gateway.NewSession(gateway.Auth{}), "p1")
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 1)
	require.Equal(t, task.StatusCompleted, res.Data[0].Status)
	require.Equal(t, "p1", b.Requests()[0].Query.Get("projectId"))
}

func TestRoles_MultiEndpointFallback(t *testing.T) {
	b := testserver.New(t)
	b.Seed("roles", map[string]any{"id": "r1", "name": "Auditor"})
	client := newClient(b, nil, map[gateway.Resource][]string{
		gateway.Roles: {b.Server.URL + "/missing-roles", b.URL("roles")},
	})

	res := client.ListRoles(context.Background(), gateway.NewSession(gateway.Auth{}))
	require.True(t, res.Success, res.Error)
	require.Equal(t, b.URL("roles"), res.Endpoint)
	require.Len(t, res.Data, 1)
	require.Len(t, b.Requests(), 2)
}

func TestRoles_ServerErrorTriesNextCandidate(t *testing.T) {
	b := testserver.New(t)
	b.Seed("roles", map[string]any{"id": "r1", "name": "Auditor"})
	var broken atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		broken.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)
	client := newClient(b, nil, map[gateway.Resource][]string{
		gateway.Roles: {down.URL, b.URL("roles")},
	})
	sess := gateway.NewSession(gateway.Auth{})

	res := client.ListRoles(context.Background(), sess)
	require.True(t, res.Success, res.Error)
	require.Equal(t, b.URL("roles"), res.Endpoint)
	require.Len(t, res.Data, 1)
	require.Equal(t, int32(1), broken.Load())
	require.Len(t, b.Requests(), 1)

	status, _ := sess.Status(gateway.Roles)
	require.Equal(t, gateway.StatusAvailable, status)
}

func TestRoles_AllCandidatesServerErrorMarksUnavailable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)
	client := newClient(testserver.New(t), nil, map[gateway.Resource][]string{
		gateway.Roles: {down.URL + "/a", down.URL + "/b"},
	})
	sess := gateway.NewSession(gateway.Auth{})

	res := client.ListRoles(context.Background(), sess)
	require.False(t, res.Success)
	require.Equal(t, gateway.KindServer, res.Kind)
	require.Equal(t, http.StatusServiceUnavailable, res.Status)

	status, _ := sess.Status(gateway.Roles)
	require.Equal(t, gateway.StatusUnavailable, status)
}

func TestRoles_ForbiddenStopsFallback(t *testing.T) {
	b := testserver.New(t)
	b.APIKey = "right"
	client := newClient(b, nil, map[gateway.Resource][]string{
		gateway.Roles: {b.URL("roles"), b.URL("roles")},
	})
	sess := gateway.NewSession(gateway.Auth{APIKey: "wrong"})

	res := client.ListRoles(context.Background(), sess)
	require.False(t, res.Success)
	require.Equal(t, gateway.KindAuth, res.Kind)
	require.Equal(t, http.StatusForbidden, res.Status)
	require.Len(t, b.Requests(), 1)

	status, _ := sess.Status(gateway.Roles)
	require.NotEqual(t, gateway.StatusUnavailable, status)
}

func TestAvailabilityWindow(t *testing.T) {
	b := testserver.New(t)
	clock := &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	client := newClient(b, clock, map[gateway.Resource][]string{
		gateway.Roles: {b.Server.URL + "/nope-a", b.Server.URL + "/nope-b"},
	})
	sess := gateway.NewSession(gateway.Auth{})
	ctx := context.Background()

	res := client.ListRoles(ctx, sess)
	require.Equal(t, gateway.KindNotFound, res.Kind)
	require.Len(t, b.Requests(), 2)

	status, until := sess.Status(gateway.Roles)
	require.Equal(t, gateway.StatusUnavailable, status)
	require.Equal(t, clock.Now().Add(gateway.DefaultUnavailableWindow), until)

	res = client.ListRoles(ctx, sess)
	require.Equal(t, gateway.KindUnavailable, res.Kind)
	require.ErrorIs(t, res.Err(), gateway.ErrUnavailable)
	require.Len(t, b.Requests(), 2)

	clock.Advance(61 * time.Second)
	client.ListRoles(ctx, sess)
	require.Len(t, b.Requests(), 4)

	sess.SetAuth(gateway.Auth{Token: "fresh"})
	status, _ = sess.Status(gateway.Roles)
	require.Equal(t, gateway.StatusUnknown, status)
	client.ListRoles(ctx, sess)
	require.Len(t, b.Requests(), 6)
}

func TestNetworkFailure(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	client := gateway.New(gateway.Config{Endpoints: map[gateway.Resource][]string{gateway.Companies: {url + "/companies"}}})
	sess := gateway.NewSession(gateway.Auth{})

	res := client.ListCompanies(context.Background(), sess)
	require.False(t, res.Success)
	require.Equal(t, gateway.KindNetwork, res.Kind)
	gwErr, ok := gateway.AsError(res.Err())
	require.True(t, ok)
	require.True(t, gwErr.Fallback())

	status, _ := sess.Status(gateway.Companies)
	require.Equal(t, gateway.StatusUnavailable, status)
}

func TestTimeoutIsFailureWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	client := gateway.New(gateway.Config{
		Endpoints: map[gateway.Resource][]string{gateway.Companies: {slow.URL}},
		Timeout:   50 * time.Millisecond,
	})
	res := client.ListCompanies(context.Background(), gateway.NewSession(gateway.Auth{}))
	require.Equal(t, gateway.KindNetwork, res.Kind)
	require.Contains(t, res.Error, "timed out")
	require.EqualValues(t, 1, hits.Load())
}

func TestErrorBodyWithOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"table not provisioned"}`))
	}))
	t.Cleanup(srv.Close)

	client := gateway.New(gateway.Config{Endpoints: map[gateway.Resource][]string{gateway.Companies: {srv.URL}}})
	res := client.ListCompanies(context.Background(), gateway.NewSession(gateway.Auth{}))
	require.False(t, res.Success)
	require.Equal(t, gateway.KindServer, res.Kind)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "table not provisioned", res.Error)
}

func TestServerErrorIsVerbatim(t *testing.T) {
	b := testserver.New(t)
	b.FailWith("companies", http.StatusInternalServerError)
	client := newClient(b, nil, nil)

	res := client.ListCompanies(context.Background(), gateway.NewSession(gateway.Auth{}))
	require.Equal(t, gateway.KindServer, res.Kind)
	require.Equal(t, "Internal Server Error", res.Error)
	require.Equal(t, http.StatusInternalServerError, res.Status)
}

func TestServerMessage_TruncatedOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(long))
	}))
	t.Cleanup(srv.Close)
	client := newClient(testserver.New(t), nil, map[gateway.Resource][]string{
		gateway.Companies: {srv.URL},
	})

	res := client.ListCompanies(context.Background(), gateway.NewSession(gateway.Auth{}))
	require.Equal(t, gateway.KindServer, res.Kind)
	require.True(t, utf8.ValidString(res.Error))
	require.Equal(t, 300, utf8.RuneCountInString(res.Error))
}
