package core

import (
	"strings"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// AddTag appends a trimmed, non-empty, previously unknown tag to both tags
// and tagOrder. It reports false when nothing was added.
func AddTag(ws models.Workspace, name string) (models.Workspace, bool) {
	out := CloneWorkspace(ws)
	name = strings.TrimSpace(name)
	if name == "" || containsString(out.Tags, name) {
		return out, false
	}
	out.Tags = append(out.Tags, name)
	if !containsString(out.TagOrder, name) {
		out.TagOrder = append(out.TagOrder, name)
	}
	return out, true
}

// DeleteTag removes a tag from tags and tagOrder and clears it on every
// task that referenced it. Tasks are never deleted.
func DeleteTag(ws models.Workspace, name string) models.Workspace {
	out := CloneWorkspace(ws)
	for i := range out.Tasks {
		if out.Tasks[i].Tag == name {
			out.Tasks[i].Tag = ""
		}
	}
	out.Tags = removeString(out.Tags, name)
	out.TagOrder = removeString(out.TagOrder, name)
	return out
}

// TagUsage counts the tasks referencing a tag.
func TagUsage(tasks []models.Task, name string) int {
	n := 0
	for _, t := range tasks {
		if t.Tag == name {
			n++
		}
	}
	return n
}

// MoveTagColumn swaps a tag with its neighbour in tagOrder. Unknown tags
// and moves past either end return the order unchanged.
func MoveTagColumn(tagOrder []string, name string, direction int) []string {
	out := append([]string{}, tagOrder...)
	idx := -1
	for i, t := range out {
		if t == name {
			idx = i
			break
		}
	}
	next := idx + direction
	if idx < 0 || next < 0 || next >= len(out) || (direction != -1 && direction != 1) {
		return out
	}
	out[idx], out[next] = out[next], out[idx]
	return out
}

// CloneWorkspace deep-copies the mutable parts of a workspace.
func CloneWorkspace(ws models.Workspace) models.Workspace {
	out := ws
	out.Tasks = CloneTasks(ws.Tasks)
	out.Tags = append([]string{}, ws.Tags...)
	out.TagOrder = append([]string{}, ws.TagOrder...)
	out.RoutineTasks = make([]models.RoutineTemplate, len(ws.RoutineTasks))
	for i, r := range ws.RoutineTasks {
		out.RoutineTasks[i] = cloneRoutine(r)
	}
	out.Schedules = append([]any{}, ws.Schedules...)
	if ws.UpdatedAt != nil {
		u := *ws.UpdatedAt
		out.UpdatedAt = &u
	}
	return out
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
