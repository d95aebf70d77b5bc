package core

import (
	"sort"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// TagGroup is one column of the today board. Tag is empty for the
// untagged column.
type TagGroup struct {
	Tag   string        `json:"tag"`
	Tasks []models.Task `json:"tasks"`
}

// IsToday reports whether a task belongs on the today board: every task
// that is not done, plus tasks completed today.
func IsToday(t models.Task, today string) bool {
	if t.Status != models.StatusDone {
		return true
	}
	return t.CompletedDate != nil && *t.CompletedDate == today
}

// TodayTasks filters the collection down to the today board.
func TodayTasks(tasks []models.Task, today string) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if IsToday(t, today) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// GroupKey returns the column a task is shown in. Tags missing from
// tagOrder fall back to the untagged column.
func GroupKey(t models.Task, tagOrder []string) string {
	if t.Tag != "" && containsString(tagOrder, t.Tag) {
		return t.Tag
	}
	return ""
}

// SortGroup orders a column: non-done tasks by ascending order, then done
// tasks by ascending order. Ties keep collection order.
func SortGroup(tasks []models.Task) []models.Task {
	out := CloneTasks(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].IsDone(), out[j].IsDone()
		if di != dj {
			return !di
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// GroupByTag partitions tasks into one column per tagOrder entry followed
// by the untagged column. Every column is present even when empty.
func GroupByTag(tasks []models.Task, tagOrder []string) []TagGroup {
	buckets := make(map[string][]models.Task, len(tagOrder)+1)
	for _, t := range tasks {
		key := GroupKey(t, tagOrder)
		buckets[key] = append(buckets[key], t)
	}

	groups := make([]TagGroup, 0, len(tagOrder)+1)
	for _, tag := range tagOrder {
		if tag == "" {
			continue
		}
		groups = append(groups, TagGroup{Tag: tag, Tasks: nonNil(SortGroup(buckets[tag]))})
	}
	groups = append(groups, TagGroup{Tag: "", Tasks: nonNil(SortGroup(buckets[""]))})
	return groups
}

// TodayBoard groups today's tasks by tag.
func TodayBoard(tasks []models.Task, tagOrder []string, today string) []TagGroup {
	return GroupByTag(TodayTasks(tasks, today), tagOrder)
}

// MoveWithinGroup swaps the order value of a non-done task with its
// neighbour in direction (-1 or +1) among the non-done tasks of its column.
// Done tasks, unknown ids and moves past either end are no-ops.
func MoveWithinGroup(tasks []models.Task, tagOrder []string, id string, direction int) []models.Task {
	out := CloneTasks(tasks)
	idx := FindTask(out, id)
	if idx < 0 || out[idx].IsDone() || (direction != -1 && direction != 1) {
		return out
	}

	key := GroupKey(out[idx], tagOrder)
	var column []int
	for i := range out {
		if !out[i].IsDone() && GroupKey(out[i], tagOrder) == key {
			column = append(column, i)
		}
	}
	sort.SliceStable(column, func(a, b int) bool {
		return out[column[a]].Order < out[column[b]].Order
	})

	pos := -1
	for p, i := range column {
		if i == idx {
			pos = p
			break
		}
	}
	next := pos + direction
	if pos < 0 || next < 0 || next >= len(column) {
		return out
	}

	other := column[next]
	out[idx].Order, out[other].Order = out[other].Order, out[idx].Order
	return out
}

// InsertManual prepends an empty not-started task to the column for tag,
// ordered before every non-done task already in it.
func InsertManual(tasks []models.Task, tagOrder []string, tag, id, today string) []models.Task {
	if tag != "" && !containsString(tagOrder, tag) {
		tag = ""
	}
	minOrder := 0.0
	found := false
	for _, t := range tasks {
		if t.IsDone() || GroupKey(t, tagOrder) != tag {
			continue
		}
		if !found || t.Order < minOrder {
			minOrder = t.Order
			found = true
		}
	}

	task := newTask(id, "", "", tag, today)
	task.Order = minOrder - 1
	return append([]models.Task{task}, CloneTasks(tasks)...)
}

// RegisterExtracted appends drafts as new not-started tasks. Each draft is
// ordered after the existing tasks carrying the same tag, offset by its
// position in drafts. ids must be at least as long as drafts.
func RegisterExtracted(tasks []models.Task, drafts []models.TaskDraft, ids []string, today string) []models.Task {
	out := CloneTasks(tasks)
	for i, d := range drafts {
		if i >= len(ids) {
			break
		}
		task := newTask(ids[i], d.Name, d.Memo, d.Tag, today)
		task.Order = maxOrderForTag(tasks, d.Tag) + 1 + float64(i)
		if d.EstimatedMinutes != nil {
			m := *d.EstimatedMinutes
			task.EstimatedMinutes = &m
		}
		out = append(out, task)
	}
	return out
}

func maxOrderForTag(tasks []models.Task, tag string) float64 {
	highest := -1.0
	found := false
	for _, t := range tasks {
		if t.Tag != tag {
			continue
		}
		if !found || t.Order > highest {
			highest = t.Order
			found = true
		}
	}
	return highest
}

func newTask(id, name, memo, tag, today string) models.Task {
	return models.Task{
		ID:             id,
		Name:           name,
		Memo:           memo,
		Tag:            tag,
		Status:         models.StatusNotStarted,
		RegisteredDate: today,
		WorkDates:      []string{},
		WorkSessions:   []models.WorkSession{},
	}
}

func nonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
