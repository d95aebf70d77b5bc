package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusWorking    TaskStatus = "working"
	StatusPaused     TaskStatus = "paused"
	StatusWaiting    TaskStatus = "waiting"
	StatusDone       TaskStatus = "done"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []TaskStatus{
	StatusNotStarted,
	StatusWorking,
	StatusPaused,
	StatusWaiting,
	StatusDone,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// WorkSession is one contiguous interval of recorded work on a task.
// End is nil while the session is open.
type WorkSession struct {
	Start  time.Time  `json:"start" yaml:"start"`
	End    *time.Time `json:"end" yaml:"end"`
	TaskID string     `json:"taskId" yaml:"task_id"`
}

// Open reports whether the session has not been closed yet.
func (s WorkSession) Open() bool {
	return s.End == nil
}

// Task is a unit of work tracked through the not_started -> working ->
// paused/waiting/done lifecycle.
type Task struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Memo             string        `json:"memo" yaml:"memo"`
	StatusComment    string        `json:"statusComment" yaml:"status_comment"`
	Tag              string        `json:"tag" yaml:"tag"`
	Status           TaskStatus    `json:"status" yaml:"status"`
	RegisteredDate   string        `json:"registeredDate" yaml:"registered_date"`
	CompletedDate    *string       `json:"completedDate" yaml:"completed_date"`
	WorkDates        []string      `json:"workDates" yaml:"work_dates"`
	AccumulatedTime  int64         `json:"accumulatedTime" yaml:"accumulated_time"`
	StartedAt        *time.Time    `json:"startedAt" yaml:"started_at"`
	WorkSessions     []WorkSession `json:"workSessions" yaml:"work_sessions"`
	EstimatedMinutes *int          `json:"estimatedMinutes,omitempty" yaml:"estimated_minutes,omitempty"`
	Order            float64       `json:"order" yaml:"order"`
}

// IsDone reports whether the task is in the done state.
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// TaskPatch carries user edits to a task's text and numeric fields.
// Nil fields are left unchanged. Timer state is never part of a patch.
type TaskPatch struct {
	Name             *string `json:"name,omitempty"`
	Memo             *string `json:"memo,omitempty"`
	StatusComment    *string `json:"statusComment,omitempty"`
	Tag              *string `json:"tag,omitempty"`
	EstimatedMinutes *int    `json:"estimatedMinutes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Memo == nil && p.StatusComment == nil && p.Tag == nil && p.EstimatedMinutes == nil
}

// TaskDraft is a task proposed by extraction and not yet registered.
type TaskDraft struct {
	Name             string `json:"name" yaml:"name"`
	Tag              string `json:"tag" yaml:"tag"`
	Memo             string `json:"memo" yaml:"memo"`
	EstimatedMinutes *int   `json:"estimatedMinutes,omitempty" yaml:"estimated_minutes,omitempty"`
}
