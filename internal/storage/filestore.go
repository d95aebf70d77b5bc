package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// FileWorkspaceStore keeps a single workspace in a YAML file. It backs the
// offline CLI, so the account argument is ignored.
type FileWorkspaceStore struct {
	path  string
	clock clock.Clock
}

// NewFileWorkspaceStore creates a store for the YAML file at path.
func NewFileWorkspaceStore(path string, clk clock.Clock) *FileWorkspaceStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &FileWorkspaceStore{path: path, clock: clk}
}

// Path returns the workspace file location.
func (s *FileWorkspaceStore) Path() string {
	return s.path
}

// Load reads the workspace file. A missing file yields an empty workspace.
func (s *FileWorkspaceStore) Load(_ context.Context, _ string) (models.Workspace, error) {
	unlock, err := s.lock()
	if err != nil {
		return models.Workspace{}, fmt.Errorf("loading workspace: %w", err)
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.EmptyWorkspace(), nil
	}
	if err != nil {
		return models.Workspace{}, fmt.Errorf("loading workspace: reading %s: %w", s.path, err)
	}

	var ws models.Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return models.Workspace{}, fmt.Errorf("loading workspace: parsing %s: %w", s.path, err)
	}
	ws.Normalize()
	return ws, nil
}

// Save writes the workspace to a temporary file and renames it over the
// original so readers never observe a partial file.
func (s *FileWorkspaceStore) Save(_ context.Context, _ string, ws models.Workspace) error {
	now := s.clock.Now()
	ws.UpdatedAt = &now
	ws.Normalize()

	data, err := yaml.Marshal(&ws)
	if err != nil {
		return fmt.Errorf("saving workspace: encoding: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("saving workspace: creating directory: %w", err)
	}

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	defer unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving workspace: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("saving workspace: replacing %s: %w", s.path, err)
	}
	return nil
}

// lock takes an exclusive flock on a sibling ".lock" file so a dashboard
// and a CLI command never interleave writes.
func (s *FileWorkspaceStore) lock() (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	// syscall.Flock is Unix-specific.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring workspace lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
