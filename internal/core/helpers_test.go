package core

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// baseTime is a fixed local instant away from DST transitions.
var baseTime = time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tp(t time.Time) *time.Time { return &t }

func sp(s string) *string { return &s }

func ip(i int) *int { return &i }

func closed(start time.Time, d time.Duration) models.WorkSession {
	end := start.Add(d)
	return models.WorkSession{Start: start, End: &end}
}

func task(id, tag string, status models.TaskStatus, order float64) models.Task {
	return models.Task{
		ID:             id,
		Name:           id,
		Tag:            tag,
		Status:         status,
		RegisteredDate: "2025-06-10",
		WorkDates:      []string{},
		WorkSessions:   []models.WorkSession{},
		Order:          order,
	}
}

// recordingEvents captures events written by services under test.
type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) LogEvent(eventType string, _ map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

// recordingSaver captures scheduled snapshots.
type recordingSaver struct {
	mu        sync.Mutex
	scheduled []models.Workspace
	flushed   int
	err       error
}

func (s *recordingSaver) Schedule(ws models.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, ws)
}

func (s *recordingSaver) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
	return s.err
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

func (s *recordingSaver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
