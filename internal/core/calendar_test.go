package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

func TestBuildCalendar_OverlappingSessionsStaySeparate(t *testing.T) {
	a := task("a", "dev", models.StatusPaused, 0)
	a.WorkSessions = []models.WorkSession{closed(baseTime.Add(-3*time.Hour), time.Hour)}
	b := task("b", "ops", models.StatusPaused, 0)
	b.WorkSessions = []models.WorkSession{closed(baseTime.Add(-150*time.Minute), time.Hour)}

	days := BuildCalendar([]models.Task{b, a}, baseTime)
	if len(days) != CalendarDays {
		t.Fatalf("expected %d days, got %d", CalendarDays, len(days))
	}
	today := days[0]
	if today.Date != "2025-06-10" || !today.Today {
		t.Fatalf("first day = %s (today=%v), want 2025-06-10", today.Date, today.Today)
	}
	if len(today.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(today.Entries))
	}
	if today.Entries[0].TaskID != "a" || today.Entries[1].TaskID != "b" {
		t.Errorf("entries not sorted by start: %s, %s", today.Entries[0].TaskID, today.Entries[1].TaskID)
	}
	if today.TotalSeconds != 7200 {
		t.Errorf("TotalSeconds = %d, want 7200", today.TotalSeconds)
	}
	if today.Entries[0].StartMinute != 9*60 {
		t.Errorf("StartMinute = %d, want 540", today.Entries[0].StartMinute)
	}
}

func TestBuildCalendar_OpenSessionEndsNow(t *testing.T) {
	tasks := Start([]models.Task{task("a", "", models.StatusNotStarted, 0)}, "a", baseTime)
	now := baseTime.Add(20 * time.Minute)

	days := BuildCalendar(tasks, now)
	entry := days[0].Entries[0]
	if !entry.Open || !entry.End.Equal(now) || entry.Seconds != 1200 {
		t.Errorf("open entry = %+v, want open ending now with 1200s", entry)
	}
	if tasks[0].WorkSessions[0].End != nil {
		t.Error("BuildCalendar must not close the underlying session")
	}
}

func TestBuildCalendar_WindowAndWeekdays(t *testing.T) {
	old := task("old", "", models.StatusDone, 0)
	old.WorkSessions = []models.WorkSession{closed(baseTime.AddDate(0, 0, -7), time.Hour)}
	edge := task("edge", "", models.StatusDone, 0)
	edge.WorkSessions = []models.WorkSession{closed(baseTime.AddDate(0, 0, -6), time.Hour)}

	days := BuildCalendar([]models.Task{old, edge}, baseTime)
	last := days[CalendarDays-1]
	if last.Date != "2025-06-04" {
		t.Fatalf("last day = %s, want 2025-06-04", last.Date)
	}
	if len(last.Entries) != 1 || last.Entries[0].TaskID != "edge" {
		t.Errorf("sessions older than the window must be excluded, got %+v", last.Entries)
	}
	if days[0].Weekday != "tue" {
		t.Errorf("weekday of 2025-06-10 = %s, want tue", days[0].Weekday)
	}
}
