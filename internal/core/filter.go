package core

import (
	"strings"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// Tag filter values with special meaning.
const (
	FilterAllTags = "all"
	FilterNoTag   = "none"
)

// TaskFilter selects tasks for the task database view. Zero values match
// everything. From and To are inclusive date keys on registeredDate.
type TaskFilter struct {
	Tag    string            `json:"tag"`
	Status models.TaskStatus `json:"status"`
	Search string            `json:"search"`
	From   string            `json:"from"`
	To     string            `json:"to"`
}

// Match reports whether t passes every criterion of f.
func (f TaskFilter) Match(t models.Task) bool {
	switch f.Tag {
	case "", FilterAllTags:
	case FilterNoTag:
		if t.Tag != "" {
			return false
		}
	default:
		if t.Tag != f.Tag {
			return false
		}
	}
	if f.Status != "" && f.Status != "all" && t.Status != f.Status {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.From != "" && t.RegisteredDate < f.From {
		return false
	}
	if f.To != "" && t.RegisteredDate > f.To {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching f in collection order.
func FilterTasks(tasks []models.Task, f TaskFilter) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}
