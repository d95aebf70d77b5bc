package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// ValidateRoutine checks a routine template before it is stored.
func ValidateRoutine(r models.RoutineTemplate) error {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	for _, d := range r.Days {
		if !containsString(models.WeekdayNames, d) {
			errs = append(errs, fmt.Sprintf("day %q is invalid, must be one of: %s", d, strings.Join(models.WeekdayNames, ", ")))
		}
	}
	if r.EstimatedMinutes != nil && *r.EstimatedMinutes < 0 {
		errs = append(errs, "estimated minutes must be non-negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("routine validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PutRoutine inserts a template or replaces the one with the same id.
func PutRoutine(ws models.Workspace, r models.RoutineTemplate) (models.Workspace, error) {
	if err := ValidateRoutine(r); err != nil {
		return CloneWorkspace(ws), err
	}
	out := CloneWorkspace(ws)
	r = cloneRoutine(r)
	r.Name = strings.TrimSpace(r.Name)
	for i := range out.RoutineTasks {
		if out.RoutineTasks[i].ID == r.ID {
			out.RoutineTasks[i] = r
			return out, nil
		}
	}
	out.RoutineTasks = append(out.RoutineTasks, r)
	return out, nil
}

// DeleteRoutine removes a template. Tasks already created from it stay.
func DeleteRoutine(ws models.Workspace, id string) models.Workspace {
	out := CloneWorkspace(ws)
	kept := out.RoutineTasks[:0]
	for _, r := range out.RoutineTasks {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	out.RoutineTasks = kept
	return out
}

// DueOn returns the templates scheduled for a weekday ("sun".."sat").
func DueOn(routines []models.RoutineTemplate, weekday string) []models.RoutineTemplate {
	var out []models.RoutineTemplate
	for _, r := range routines {
		if containsString(r.Days, weekday) {
			out = append(out, cloneRoutine(r))
		}
	}
	return out
}

// ApplyRoutines instantiates the selected templates as ordinary tasks
// registered today. The new tasks keep no reference to their template.
func ApplyRoutines(ws models.Workspace, templateIDs []string, ids []string, today string) models.Workspace {
	out := CloneWorkspace(ws)
	var drafts []models.TaskDraft
	for _, tid := range templateIDs {
		for _, r := range out.RoutineTasks {
			if r.ID == tid {
				drafts = append(drafts, models.TaskDraft{
					Name:             r.Name,
					Tag:              r.Tag,
					Memo:             r.Memo,
					EstimatedMinutes: r.EstimatedMinutes,
				})
				break
			}
		}
	}
	out.Tasks = RegisterExtracted(out.Tasks, drafts, ids, today)
	return out
}

func cloneRoutine(r models.RoutineTemplate) models.RoutineTemplate {
	c := r
	c.Days = append([]string{}, r.Days...)
	if r.EstimatedMinutes != nil {
		m := *r.EstimatedMinutes
		c.EstimatedMinutes = &m
	}
	return c
}
