package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// WorkspaceWriter is the write half of a workspace store.
type WorkspaceWriter interface {
	Save(ctx context.Context, account string, ws models.Workspace) error
}

// DebouncedSaver coalesces bursts of workspace snapshots into a single
// write once the board has been quiet for the configured delay. Only the
// latest snapshot is written. A failed write is kept as LastError and the
// snapshot stays pending until the next Schedule or Flush.
type DebouncedSaver struct {
	store   WorkspaceWriter
	account string
	delay   time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	pending *models.Workspace
	timer   *clock.Timer
	lastErr error

	// writeMu keeps writes in schedule order.
	writeMu sync.Mutex
}

// NewDebouncedSaver creates a saver that writes account's workspace to
// store delay after the last Schedule call. A non-positive delay writes
// synchronously.
func NewDebouncedSaver(store WorkspaceWriter, account string, delay time.Duration, clk clock.Clock, logger *slog.Logger) *DebouncedSaver {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DebouncedSaver{
		store:   store,
		account: account,
		delay:   delay,
		clock:   clk,
		logger:  logger,
	}
}

// Schedule replaces the pending snapshot and restarts the quiet period.
func (s *DebouncedSaver) Schedule(ws models.Workspace) {
	s.mu.Lock()
	s.pending = &ws
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.delay <= 0 {
		s.mu.Unlock()
		_ = s.Flush(context.Background())
		return
	}
	s.timer = s.clock.AfterFunc(s.delay, func() {
		_ = s.Flush(context.Background())
	})
	s.mu.Unlock()
}

// Flush writes the pending snapshot now, if there is one.
func (s *DebouncedSaver) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	snapshot := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if snapshot == nil {
		return nil
	}

	err := s.store.Save(ctx, s.account, *snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("changes not yet saved: %w", err)
		s.lastErr = err
		// A newer Schedule wins over the failed snapshot.
		if s.pending == nil {
			s.pending = snapshot
		}
		s.logger.Error("saving workspace failed", "account", s.account, "error", err)
		return err
	}
	s.lastErr = nil
	s.logger.Debug("workspace saved", "account", s.account, "tasks", len(snapshot.Tasks))
	return nil
}

// LastError returns the error of the most recent write, or nil once a
// write has succeeded.
func (s *DebouncedSaver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Pending reports whether a snapshot is waiting to be written.
func (s *DebouncedSaver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
