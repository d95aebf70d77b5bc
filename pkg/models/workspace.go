package models

import "time"

// Weekday names used by routine templates. They follow time.Weekday order.
var WeekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// RoutineTemplate is a recurring task definition. Applying it creates an
// ordinary Task with no back-reference to the template.
type RoutineTemplate struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Memo             string   `json:"memo" yaml:"memo"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty" yaml:"estimated_minutes,omitempty"`
	Tag              string   `json:"tag" yaml:"tag"`
	Days             []string `json:"days" yaml:"days"`
}

// Workspace is the per-account blob persisted wholesale by the store.
type Workspace struct {
	Tasks        []Task            `json:"tasks" yaml:"tasks"`
	Tags         []string          `json:"tags" yaml:"tags"`
	TagOrder     []string          `json:"tagOrder" yaml:"tag_order"`
	RoutineTasks []RoutineTemplate `json:"routineTasks" yaml:"routine_tasks"`
	Schedules    []any             `json:"schedules" yaml:"schedules"`
	UpdatedAt    *time.Time        `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// EmptyWorkspace returns a workspace with every collection initialised to
// an empty, non-nil slice so it serialises as [] rather than null.
func EmptyWorkspace() Workspace {
	return Workspace{
		Tasks:        []Task{},
		Tags:         []string{},
		TagOrder:     []string{},
		RoutineTasks: []RoutineTemplate{},
		Schedules:    []any{},
	}
}

// Normalize replaces nil collections with empty ones and fills in missing
// per-task slices. It is applied to every loaded workspace.
func (w *Workspace) Normalize() {
	if w.Tasks == nil {
		w.Tasks = []Task{}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.TagOrder == nil {
		w.TagOrder = []string{}
	}
	if w.RoutineTasks == nil {
		w.RoutineTasks = []RoutineTemplate{}
	}
	if w.Schedules == nil {
		w.Schedules = []any{}
	}
	for i := range w.Tasks {
		if w.Tasks[i].WorkDates == nil {
			w.Tasks[i].WorkDates = []string{}
		}
		if w.Tasks[i].WorkSessions == nil {
			w.Tasks[i].WorkSessions = []WorkSession{}
		}
		if w.Tasks[i].Status == "" {
			w.Tasks[i].Status = StatusNotStarted
		}
	}
}
