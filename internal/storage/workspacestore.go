package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// WorkspaceKeyPrefix prefixes the key each account's workspace is stored
// under.
const WorkspaceKeyPrefix = "tasks:"

// WorkspaceKey returns the key holding account's workspace.
func WorkspaceKey(account string) string {
	return WorkspaceKeyPrefix + account
}

// KVWorkspaceStore persists each account's workspace as one JSON blob in a
// KeyValueStore. Writes replace the whole blob.
type KVWorkspaceStore struct {
	kv    KeyValueStore
	clock clock.Clock
}

// NewKVWorkspaceStore creates a workspace store over kv.
func NewKVWorkspaceStore(kv KeyValueStore, clk clock.Clock) *KVWorkspaceStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &KVWorkspaceStore{kv: kv, clock: clk}
}

// Load returns the stored workspace, or an empty one when the account has
// never saved.
func (s *KVWorkspaceStore) Load(ctx context.Context, account string) (models.Workspace, error) {
	raw, ok, err := s.kv.Get(ctx, WorkspaceKey(account))
	if err != nil {
		return models.Workspace{}, fmt.Errorf("loading workspace: %w", err)
	}
	if !ok {
		return models.EmptyWorkspace(), nil
	}

	var ws models.Workspace
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		return models.Workspace{}, fmt.Errorf("decoding workspace: %w", err)
	}
	ws.Normalize()
	return ws, nil
}

// Save stamps UpdatedAt and overwrites the stored workspace.
func (s *KVWorkspaceStore) Save(ctx context.Context, account string, ws models.Workspace) error {
	now := s.clock.Now()
	ws.UpdatedAt = &now
	ws.Normalize()

	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}
	if err := s.kv.Set(ctx, WorkspaceKey(account), string(data), 0); err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	return nil
}
