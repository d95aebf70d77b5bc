package core

import (
	"context"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// WorkspaceStore loads and saves the per-account workspace blob.
// This interface is defined locally in core to avoid importing storage.
type WorkspaceStore interface {
	Load(ctx context.Context, account string) (models.Workspace, error)
	Save(ctx context.Context, account string, ws models.Workspace) error
}

// WorkspaceSaver coalesces workspace snapshots into debounced writes.
// A failed write is reported by LastError and retried on the next Schedule
// or Flush; it never rolls back in-memory state.
type WorkspaceSaver interface {
	Schedule(ws models.Workspace)
	Flush(ctx context.Context) error
	LastError() error
}
