package sqlite

import (
	"context"
	"fmt"
	"time"
)

// SnapshotRepository persists cache collection snapshots. It implements
// cache.Persister.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot replaces the stored snapshot of one collection.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, workspaceID, collection string, payload []byte) error {
	query := `
		INSERT INTO cache_snapshots (workspace_id, collection, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace_id, collection) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, workspaceID, collection, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", collection, err)
	}
	return nil
}

// LoadSnapshots returns every stored snapshot of a workspace keyed by collection.
func (r *SnapshotRepository) LoadSnapshots(ctx context.Context, workspaceID string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, payload FROM cache_snapshots WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var collection, payload string
		if err := rows.Scan(&collection, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out[collection] = []byte(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return out, nil
}

// ClearSnapshots removes every snapshot of a workspace.
func (r *SnapshotRepository) ClearSnapshots(ctx context.Context, workspaceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_snapshots WHERE workspace_id = ?`, workspaceID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
