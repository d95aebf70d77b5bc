package core

import (
	"time"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// transitions lists the allowed status changes. Start is additionally a
// no-op on a task that is already working.
var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.StatusNotStarted: {models.StatusWorking},
	models.StatusWorking:    {models.StatusPaused, models.StatusWaiting, models.StatusDone},
	models.StatusPaused:     {models.StatusWorking, models.StatusDone},
	models.StatusWaiting:    {models.StatusWorking, models.StatusDone},
	models.StatusDone:       {models.StatusWorking},
}

// CanTransition reports whether a task in status from may move to status to.
func CanTransition(from, to models.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FindTask returns the index of the task with the given id, or -1.
func FindTask(tasks []models.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Start makes id the single working task. Any other working task is paused
// first with its open session closed at now. Unknown ids and tasks that
// are already working leave the collection unchanged.
func Start(tasks []models.Task, id string, now time.Time) []models.Task {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 || !CanTransition(out[idx].Status, models.StatusWorking) {
		return out
	}

	for i := range out {
		if i != idx && out[i].Status == models.StatusWorking {
			stopTimer(&out[i], models.StatusPaused, now)
		}
	}

	t := &out[idx]
	today := timeutil.DateKey(now)
	started := now
	t.Status = models.StatusWorking
	t.StartedAt = &started
	t.CompletedDate = nil
	if !containsString(t.WorkDates, today) {
		t.WorkDates = append(t.WorkDates, today)
	}
	t.WorkSessions = append(t.WorkSessions, models.WorkSession{Start: now, TaskID: t.ID})
	return out
}

// Pause closes the open session of a working task and sets it to paused.
func Pause(tasks []models.Task, id string, now time.Time) []models.Task {
	return stop(tasks, id, models.StatusPaused, now)
}

// Wait closes the open session of a working task and sets it to waiting.
func Wait(tasks []models.Task, id string, now time.Time) []models.Task {
	return stop(tasks, id, models.StatusWaiting, now)
}

// Complete closes any open session, marks the task done and stamps
// completedDate with today.
func Complete(tasks []models.Task, id string, now time.Time) []models.Task {
	return stop(tasks, id, models.StatusDone, now)
}

// Delete removes the task outright.
func Delete(tasks []models.Task, id string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// UpdateTask applies a text/numeric patch. Timer state is never touched.
func UpdateTask(tasks []models.Task, id string, patch models.TaskPatch) []models.Task {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 {
		return out
	}
	t := &out[idx]
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Memo != nil {
		t.Memo = *patch.Memo
	}
	if patch.StatusComment != nil {
		t.StatusComment = *patch.StatusComment
	}
	if patch.Tag != nil {
		t.Tag = *patch.Tag
	}
	if patch.EstimatedMinutes != nil {
		minutes := *patch.EstimatedMinutes
		t.EstimatedMinutes = &minutes
	}
	return out
}

// AddTaskSession validates a manual interval and appends it to the task as
// a closed session.
func AddTaskSession(tasks []models.Task, id string, in SessionInput, now time.Time) ([]models.Task, error) {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 {
		return out, nil
	}
	start, end, err := ValidateSessionInput(in, false, now)
	if err != nil {
		return CloneTasks(tasks), err
	}
	t := &out[idx]
	t.WorkSessions = AddSession(t.WorkSessions, models.WorkSession{Start: start, End: end, TaskID: t.ID})
	t.AccumulatedTime = RecomputeAccumulated(t.WorkSessions)
	return out, nil
}

// UpdateTaskSession replaces the bounds of the session at index (in start
// order). An empty date, start or end keeps the session's current value.
// The running session of a working task only takes a new start,
// which also moves startedAt.
func UpdateTaskSession(tasks []models.Task, id string, index int, in SessionInput, now time.Time) ([]models.Task, error) {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 {
		return out, nil
	}
	t := &out[idx]
	sorted := SortSessions(t.WorkSessions)
	if index < 0 || index >= len(sorted) {
		return out, nil
	}
	open := sorted[index].End == nil && t.Status == models.StatusWorking
	if in.Date == "" {
		in.Date = timeutil.DateKey(sorted[index].Start)
	}
	prev := sorted[index]
	start, end, err := validateSession(in, open, now, &prev)
	if err != nil {
		return CloneTasks(tasks), err
	}
	t.WorkSessions = UpdateSession(sorted, index, models.WorkSession{Start: start, End: end, TaskID: t.ID})
	if open {
		s := start
		t.StartedAt = &s
	}
	t.AccumulatedTime = RecomputeAccumulated(t.WorkSessions)
	return out, nil
}

// RemoveTaskSession drops the session at index (in start order). The
// running session of a working task cannot be removed; pause it first.
func RemoveTaskSession(tasks []models.Task, id string, index int) ([]models.Task, error) {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 {
		return out, nil
	}
	t := &out[idx]
	sorted := SortSessions(t.WorkSessions)
	if index < 0 || index >= len(sorted) {
		return out, nil
	}
	if sorted[index].End == nil && t.Status == models.StatusWorking {
		return CloneTasks(tasks), &SessionValidationError{Field: "session", Reason: "cannot remove the running session"}
	}
	t.WorkSessions = RemoveSession(sorted, index)
	t.AccumulatedTime = RecomputeAccumulated(t.WorkSessions)
	return out, nil
}

// LiveElapsed returns accumulated time plus the running interval for a
// working task.
func LiveElapsed(t models.Task, now time.Time) int64 {
	elapsed := t.AccumulatedTime
	if t.Status == models.StatusWorking && t.StartedAt != nil {
		if running := timeutil.Seconds(*t.StartedAt, now); running > 0 {
			elapsed += running
		}
	}
	return elapsed
}

// ElapsedTimes maps every task id to its live elapsed seconds.
func ElapsedTimes(tasks []models.Task, now time.Time) map[string]int64 {
	out := make(map[string]int64, len(tasks))
	for _, t := range tasks {
		out[t.ID] = LiveElapsed(t, now)
	}
	return out
}

// WorkingTask returns the id of the working task, if any.
func WorkingTask(tasks []models.Task) (string, bool) {
	for _, t := range tasks {
		if t.Status == models.StatusWorking {
			return t.ID, true
		}
	}
	return "", false
}

func stop(tasks []models.Task, id string, status models.TaskStatus, now time.Time) []models.Task {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 || !CanTransition(out[idx].Status, status) {
		return out
	}
	stopTimer(&out[idx], status, now)
	return out
}

// stopTimer closes open sessions at now, folds them into accumulatedTime
// and moves the task to status.
func stopTimer(t *models.Task, status models.TaskStatus, now time.Time) {
	for i := range t.WorkSessions {
		if t.WorkSessions[i].End == nil {
			end := now
			t.WorkSessions[i].End = &end
		}
	}
	t.AccumulatedTime = RecomputeAccumulated(t.WorkSessions)
	t.StartedAt = nil
	t.Status = status
	if status == models.StatusDone {
		today := timeutil.DateKey(now)
		t.CompletedDate = &today
	}
}

// CloneTasks deep-copies a task collection so transitions never alias the
// caller's slices.
func CloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t models.Task) models.Task {
	c := t
	if t.CompletedDate != nil {
		d := *t.CompletedDate
		c.CompletedDate = &d
	}
	if t.StartedAt != nil {
		s := *t.StartedAt
		c.StartedAt = &s
	}
	if t.EstimatedMinutes != nil {
		m := *t.EstimatedMinutes
		c.EstimatedMinutes = &m
	}
	c.WorkDates = append([]string{}, t.WorkDates...)
	c.WorkSessions = cloneSessions(t.WorkSessions)
	return c
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
