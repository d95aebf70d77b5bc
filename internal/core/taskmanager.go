package core

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// ErrTaskNotFound is returned by TaskManager for unknown task ids.
var ErrTaskNotFound = errors.New("task not found")

// TaskManager owns one workspace in memory and applies every mutation as a
// single atomic step. Each change bumps the revision, is written to the
// event log and is handed to the saver.
type TaskManager interface {
	Snapshot() models.Workspace
	Revision() uint64
	Task(id string) (models.Task, error)
	Replace(ws models.Workspace)

	Start(id string) (models.Task, error)
	Pause(id string) (models.Task, error)
	Wait(id string) (models.Task, error)
	Complete(id string) (models.Task, error)
	Delete(id string) error
	UpdateTask(id string, patch models.TaskPatch) (models.Task, error)

	AddSession(id string, in SessionInput) (models.Task, error)
	UpdateSession(id string, index int, in SessionInput) (models.Task, error)
	RemoveSession(id string, index int) (models.Task, error)

	MoveTask(id string, direction int) error
	InsertManual(tag string) models.Task
	MoveTag(name string, direction int) []string
	AddTag(name string) bool
	DeleteTag(name string) int
	TagUsage(name string) int

	RegisterExtracted(drafts []models.TaskDraft) []models.Task
	Routines() []models.RoutineTemplate
	PutRoutine(r models.RoutineTemplate) (models.RoutineTemplate, error)
	DeleteRoutine(id string) bool
	DueToday() []models.RoutineTemplate
	ApplyRoutines(templateIDs []string) []models.Task

	Today() []TagGroup
	Calendar() []CalendarDay
	Review(period ReviewPeriod) ReviewStats
	Elapsed(id string) (int64, error)
	Filter(f TaskFilter) []models.Task
}

type taskManager struct {
	mu       sync.Mutex
	ws       models.Workspace
	revision uint64

	clock  clock.Clock
	saver  WorkspaceSaver
	events EventLogger
	logger *slog.Logger
	newID  func() string
}

// NewTaskManager creates a TaskManager around ws. saver and events may be
// nil.
func NewTaskManager(ws models.Workspace, clk clock.Clock, saver WorkspaceSaver, events EventLogger, logger *slog.Logger) TaskManager {
	if logger == nil {
		logger = slog.Default()
	}
	ws.Normalize()
	return &taskManager{
		ws:     CloneWorkspace(ws),
		clock:  clk,
		saver:  saver,
		events: events,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (m *taskManager) Snapshot() models.Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CloneWorkspace(m.ws)
}

func (m *taskManager) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

func (m *taskManager) Task(id string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(id)
}

// Replace overwrites the whole workspace, as a client save does.
func (m *taskManager) Replace(ws models.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws.Normalize()
	m.commit(CloneWorkspace(ws))
	m.logEvent(EventWorkspaceReplaced, map[string]any{"tasks": len(ws.Tasks)})
}

func (m *taskManager) Start(id string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, err := m.lookup(id)
	if err != nil {
		return models.Task{}, err
	}
	previous, hadWorking := WorkingTask(m.ws.Tasks)

	next := CloneWorkspace(m.ws)
	next.Tasks = Start(m.ws.Tasks, id, m.clock.Now())
	after := next.Tasks[FindTask(next.Tasks, id)]
	if after.Status == before.Status {
		return after, nil
	}
	m.commit(next)
	if hadWorking && previous != id {
		m.logEvent(EventTaskPaused, map[string]any{"task_id": previous, "reason": "switched"})
	}
	m.logEvent(EventTaskStarted, map[string]any{"task_id": id, "from": string(before.Status)})
	return after, nil
}

func (m *taskManager) Pause(id string) (models.Task, error) {
	return m.transition(id, Pause, EventTaskPaused)
}

func (m *taskManager) Wait(id string) (models.Task, error) {
	return m.transition(id, Wait, EventTaskWaiting)
}

func (m *taskManager) Complete(id string) (models.Task, error) {
	return m.transition(id, Complete, EventTaskCompleted)
}

func (m *taskManager) transition(id string, fn func([]models.Task, string, time.Time) []models.Task, event string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, err := m.lookup(id)
	if err != nil {
		return models.Task{}, err
	}
	next := CloneWorkspace(m.ws)
	next.Tasks = fn(m.ws.Tasks, id, m.clock.Now())
	after := next.Tasks[FindTask(next.Tasks, id)]
	if after.Status == before.Status {
		return after, nil
	}
	m.commit(next)
	m.logEvent(event, map[string]any{
		"task_id":     id,
		"from":        string(before.Status),
		"accumulated": after.AccumulatedTime,
	})
	return after, nil
}

func (m *taskManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(id); err != nil {
		return err
	}
	next := CloneWorkspace(m.ws)
	next.Tasks = Delete(m.ws.Tasks, id)
	m.commit(next)
	m.logEvent(EventTaskDeleted, map[string]any{"task_id": id})
	return nil
}

func (m *taskManager) UpdateTask(id string, patch models.TaskPatch) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.lookup(id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.Empty() {
		return current, nil
	}
	next := CloneWorkspace(m.ws)
	next.Tasks = UpdateTask(m.ws.Tasks, id, patch)
	m.commit(next)
	m.logEvent(EventTaskUpdated, map[string]any{"task_id": id})
	return next.Tasks[FindTask(next.Tasks, id)], nil
}

func (m *taskManager) AddSession(id string, in SessionInput) (models.Task, error) {
	return m.editSessions(id, EventSessionAdded, -1, func(tasks []models.Task, now time.Time) ([]models.Task, error) {
		return AddTaskSession(tasks, id, in, now)
	})
}

func (m *taskManager) UpdateSession(id string, index int, in SessionInput) (models.Task, error) {
	return m.editSessions(id, EventSessionUpdated, index, func(tasks []models.Task, now time.Time) ([]models.Task, error) {
		return UpdateTaskSession(tasks, id, index, in, now)
	})
}

func (m *taskManager) RemoveSession(id string, index int) (models.Task, error) {
	return m.editSessions(id, EventSessionRemoved, index, func(tasks []models.Task, _ time.Time) ([]models.Task, error) {
		return RemoveTaskSession(tasks, id, index)
	})
}

func (m *taskManager) editSessions(id, event string, index int, fn func([]models.Task, time.Time) ([]models.Task, error)) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.lookup(id)
	if err != nil {
		return models.Task{}, err
	}
	tasks, err := fn(m.ws.Tasks, m.clock.Now())
	if err != nil {
		return current, err
	}
	next := CloneWorkspace(m.ws)
	next.Tasks = tasks
	m.commit(next)

	after := tasks[FindTask(tasks, id)]
	data := map[string]any{"task_id": id, "accumulated": after.AccumulatedTime}
	if index >= 0 {
		data["index"] = index
	}
	m.logEvent(event, data)
	return after, nil
}

func (m *taskManager) MoveTask(id string, direction int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(id); err != nil {
		return err
	}
	next := CloneWorkspace(m.ws)
	next.Tasks = MoveWithinGroup(m.ws.Tasks, m.ws.TagOrder, id, direction)
	m.commit(next)
	return nil
}

func (m *taskManager) InsertManual(tag string) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	next := CloneWorkspace(m.ws)
	next.Tasks = InsertManual(m.ws.Tasks, m.ws.TagOrder, tag, id, timeutil.DateKey(m.clock.Now()))
	m.commit(next)
	m.logEvent(EventTaskCreated, map[string]any{"task_id": id, "tag": tag, "source": "manual"})
	return next.Tasks[0]
}

func (m *taskManager) MoveTag(name string, direction int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := CloneWorkspace(m.ws)
	next.TagOrder = MoveTagColumn(m.ws.TagOrder, name, direction)
	m.commit(next)
	return append([]string{}, next.TagOrder...)
}

func (m *taskManager) AddTag(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, ok := AddTag(m.ws, name)
	if !ok {
		return false
	}
	m.commit(next)
	m.logEvent(EventTagAdded, map[string]any{"tag": next.Tags[len(next.Tags)-1]})
	return true
}

// DeleteTag removes the tag and returns how many tasks were untagged.
func (m *taskManager) DeleteTag(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	affected := TagUsage(m.ws.Tasks, name)
	if !containsString(m.ws.Tags, name) && !containsString(m.ws.TagOrder, name) && affected == 0 {
		return 0
	}
	m.commit(DeleteTag(m.ws, name))
	m.logEvent(EventTagRemoved, map[string]any{"tag": name, "affected": affected})
	return affected
}

func (m *taskManager) TagUsage(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TagUsage(m.ws.Tasks, name)
}

func (m *taskManager) RegisterExtracted(drafts []models.TaskDraft) []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(drafts) == 0 {
		return []models.Task{}
	}
	before := len(m.ws.Tasks)
	ids := m.ids(len(drafts))
	next := CloneWorkspace(m.ws)
	next.Tasks = RegisterExtracted(m.ws.Tasks, drafts, ids, timeutil.DateKey(m.clock.Now()))
	m.commit(next)
	m.logEvent(EventTaskCreated, map[string]any{"count": len(drafts), "source": "extraction"})
	return CloneTasks(next.Tasks[before:])
}

func (m *taskManager) Routines() []models.RoutineTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CloneWorkspace(m.ws).RoutineTasks
}

// PutRoutine stores a template, assigning an id to new ones.
func (m *taskManager) PutRoutine(r models.RoutineTemplate) (models.RoutineTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = m.newID()
	}
	next, err := PutRoutine(m.ws, r)
	if err != nil {
		return models.RoutineTemplate{}, err
	}
	m.commit(next)
	for _, stored := range next.RoutineTasks {
		if stored.ID == r.ID {
			return cloneRoutine(stored), nil
		}
	}
	return cloneRoutine(r), nil
}

func (m *taskManager) DeleteRoutine(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := DeleteRoutine(m.ws, id)
	if len(next.RoutineTasks) == len(m.ws.RoutineTasks) {
		return false
	}
	m.commit(next)
	return true
}

func (m *taskManager) DueToday() []models.RoutineTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DueOn(m.ws.RoutineTasks, timeutil.WeekdayOf(m.clock.Now()))
}

func (m *taskManager) ApplyRoutines(templateIDs []string) []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.ws.Tasks)
	next := ApplyRoutines(m.ws, templateIDs, m.ids(len(templateIDs)), timeutil.DateKey(m.clock.Now()))
	created := CloneTasks(next.Tasks[before:])
	if len(created) == 0 {
		return created
	}
	m.commit(next)
	m.logEvent(EventRoutinesApplied, map[string]any{"count": len(created)})
	return created
}

func (m *taskManager) Today() []TagGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TodayBoard(m.ws.Tasks, m.ws.TagOrder, timeutil.DateKey(m.clock.Now()))
}

func (m *taskManager) Calendar() []CalendarDay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return BuildCalendar(m.ws.Tasks, m.clock.Now())
}

func (m *taskManager) Review(period ReviewPeriod) ReviewStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return BuildReview(m.ws.Tasks, m.ws.TagOrder, period, m.clock.Now())
}

func (m *taskManager) Elapsed(id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return LiveElapsed(t, m.clock.Now()), nil
}

func (m *taskManager) Filter(f TaskFilter) []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterTasks(m.ws.Tasks, f)
}

// lookup must be called with mu held.
func (m *taskManager) lookup(id string) (models.Task, error) {
	idx := FindTask(m.ws.Tasks, id)
	if idx < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return cloneTask(m.ws.Tasks[idx]), nil
}

// commit must be called with mu held.
func (m *taskManager) commit(next models.Workspace) {
	m.ws = next
	m.revision++
	if m.saver != nil {
		m.saver.Schedule(CloneWorkspace(next))
	}
}

func (m *taskManager) ids(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = m.newID()
	}
	return ids
}

func (m *taskManager) logEvent(eventType string, data map[string]any) {
	if m.events == nil {
		return
	}
	if err := m.events.LogEvent(eventType, data); err != nil {
		m.logger.Warn("writing event", "type", eventType, "error", err)
	}
}
