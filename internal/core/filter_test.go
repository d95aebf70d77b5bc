package core

import (
	"testing"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

func TestFilterTasks(t *testing.T) {
	a := task("a", "dev", models.StatusDone, 0)
	a.Name = "Write Report"
	a.RegisteredDate = "2025-06-01"
	b := task("b", "", models.StatusNotStarted, 0)
	b.Name = "call supplier"
	b.RegisteredDate = "2025-06-05"
	c := task("c", "ops", models.StatusNotStarted, 0)
	c.Name = "report numbers"
	c.RegisteredDate = "2025-06-09"
	tasks := []models.Task{a, b, c}

	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{"zero value", TaskFilter{}, []string{"a", "b", "c"}},
		{"all tags", TaskFilter{Tag: FilterAllTags}, []string{"a", "b", "c"}},
		{"untagged", TaskFilter{Tag: FilterNoTag}, []string{"b"}},
		{"by tag", TaskFilter{Tag: "ops"}, []string{"c"}},
		{"by status", TaskFilter{Status: models.StatusNotStarted}, []string{"b", "c"}},
		{"search ignores case", TaskFilter{Search: "REPORT"}, []string{"a", "c"}},
		{"date range inclusive", TaskFilter{From: "2025-06-01", To: "2025-06-05"}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(FilterTasks(tasks, tt.filter)); !equalStrings(got, tt.want) {
				t.Errorf("FilterTasks = %v, want %v", got, tt.want)
			}
		})
	}
}
