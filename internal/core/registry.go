package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// SaverFactory builds the debounced saver for one account.
type SaverFactory func(account string) WorkspaceSaver

// BoardRegistry keeps one TaskManager per account, loading the workspace
// from the store on first use. Concurrent writers under one account are
// not reconciled; the last save wins.
type BoardRegistry struct {
	mu       sync.Mutex
	boards   map[string]TaskManager
	savers   map[string]WorkspaceSaver
	store    WorkspaceStore
	newSaver SaverFactory
	clock    clock.Clock
	events   EventLogger
	logger   *slog.Logger
}

// NewBoardRegistry creates a registry over store. newSaver and events may
// be nil.
func NewBoardRegistry(store WorkspaceStore, newSaver SaverFactory, clk clock.Clock, events EventLogger, logger *slog.Logger) *BoardRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardRegistry{
		boards:   make(map[string]TaskManager),
		savers:   make(map[string]WorkspaceSaver),
		store:    store,
		newSaver: newSaver,
		clock:    clk,
		events:   events,
		logger:   logger,
	}
}

// Board returns the account's TaskManager, loading it if needed.
func (r *BoardRegistry) Board(ctx context.Context, account string) (TaskManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if board, ok := r.boards[account]; ok {
		return board, nil
	}

	ws, err := r.store.Load(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("loading workspace: %w", err)
	}
	var saver WorkspaceSaver
	if r.newSaver != nil {
		saver = r.newSaver(account)
		r.savers[account] = saver
	}
	board := NewTaskManager(ws, r.clock, saver, r.events, r.logger.With("account", account))
	r.boards[account] = board
	return board, nil
}

// Save overwrites the account's workspace wholesale and writes it through
// immediately.
func (r *BoardRegistry) Save(ctx context.Context, account string, ws models.Workspace) error {
	board, err := r.Board(ctx, account)
	if err != nil {
		return err
	}
	board.Replace(ws)

	r.mu.Lock()
	saver := r.savers[account]
	r.mu.Unlock()
	if saver != nil {
		return saver.Flush(ctx)
	}
	if err := r.store.Save(ctx, account, board.Snapshot()); err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	return nil
}

// SaveError returns the last failed write for an account, if any.
func (r *BoardRegistry) SaveError(account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if saver, ok := r.savers[account]; ok {
		return saver.LastError()
	}
	return nil
}

// Flush writes every pending snapshot. It is called on shutdown.
func (r *BoardRegistry) Flush(ctx context.Context) error {
	r.mu.Lock()
	savers := make(map[string]WorkspaceSaver, len(r.savers))
	for account, s := range r.savers {
		savers[account] = s
	}
	r.mu.Unlock()

	var errs []error
	for account, s := range savers {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing %s: %w", account, err))
		}
	}
	return errors.Join(errs...)
}
