package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rpggio/workdesk/internal/domain/company"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	mu      sync.Mutex
	data    map[string]map[string][]byte
	saveErr error
	saves   int
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[string]map[string][]byte)}
}

func (m *memPersister) SaveSnapshot(_ context.Context, workspaceID, collection string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.data[workspaceID] == nil {
		m.data[workspaceID] = make(map[string][]byte)
	}
	m.data[workspaceID][collection] = payload
	return nil
}

func (m *memPersister) LoadSnapshots(_ context.Context, workspaceID string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[workspaceID], nil
}

func (m *memPersister) ClearSnapshots(_ context.Context, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, workspaceID)
	return nil
}

func TestOpen_RoundTripsThroughPersister(t *testing.T) {
	p := newMemPersister()
	ctx := context.Background()

	first := Open(ctx, "ws", p, nil)
	first.Companies.Replace([]company.Company{{ID: "c1", Name: "Acme", CreatedAt: "2024-01-01T00:00:00Z"}})
	first.Companies.Prepend(company.Company{ID: "local-1", Name: "Draft"}, PendingLocal)
	first.Roles.Replace([]role.Role{{ID: "r1", Name: "Auditor"}})

	second := Open(ctx, "ws", p, nil)
	require.Equal(t, first.Companies.Snapshot(), second.Companies.Snapshot())
	require.Equal(t, 1, second.PendingCount())
	require.Equal(t, 1, second.Roles.Len())

	other := Open(ctx, "other", p, nil)
	require.Zero(t, other.Companies.Len())
}

func TestOpen_SaveFailureNeverSurfaces(t *testing.T) {
	p := newMemPersister()
	p.saveErr = errors.New("disk full")

	c := Open(context.Background(), "ws", p, nil)
	c.Companies.Prepend(company.Company{ID: "c1"}, Synced)

	require.Equal(t, 1, c.Companies.Len())
	require.Equal(t, 1, p.saves)
}

func TestOpen_CorruptSnapshotIsDiscarded(t *testing.T) {
	p := newMemPersister()
	p.data["ws"] = map[string][]byte{CollectionCompanies: []byte("{nope")}

	c := Open(context.Background(), "ws", p, nil)
	require.Zero(t, c.Companies.Len())
}
