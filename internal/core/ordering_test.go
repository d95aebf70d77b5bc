package core

import (
	"testing"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTodayBoard_GroupsAndSorts(t *testing.T) {
	today := "2025-06-10"
	doneToday := task("done-today", "dev", models.StatusDone, -5)
	doneToday.CompletedDate = sp(today)
	doneYesterday := task("done-yesterday", "dev", models.StatusDone, 0)
	doneYesterday.CompletedDate = sp("2025-06-09")

	tasks := []models.Task{
		task("d2", "dev", models.StatusPaused, 2),
		doneToday,
		task("d1", "dev", models.StatusNotStarted, 1),
		doneYesterday,
		task("orphan", "deleted-tag", models.StatusNotStarted, 0),
		task("u1", "", models.StatusWaiting, 0),
		task("o1", "ops", models.StatusNotStarted, 0),
	}

	board := TodayBoard(tasks, []string{"ops", "dev"}, today)
	if len(board) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(board))
	}
	if board[0].Tag != "ops" || board[1].Tag != "dev" || board[2].Tag != "" {
		t.Fatalf("column order = %q,%q,%q", board[0].Tag, board[1].Tag, board[2].Tag)
	}
	if got := ids(board[1].Tasks); !equalStrings(got, []string{"d1", "d2", "done-today"}) {
		t.Errorf("dev column = %v", got)
	}
	if got := ids(board[2].Tasks); !equalStrings(got, []string{"orphan", "u1"}) {
		t.Errorf("untagged column = %v", got)
	}
}

func TestSortGroup_StableOnTies(t *testing.T) {
	tasks := []models.Task{
		task("x", "", models.StatusNotStarted, 0),
		task("y", "", models.StatusNotStarted, 0),
		task("z", "", models.StatusNotStarted, 0),
	}
	if got := ids(SortGroup(tasks)); !equalStrings(got, []string{"x", "y", "z"}) {
		t.Errorf("SortGroup = %v, want collection order on ties", got)
	}
}

func TestMoveWithinGroup_SwapsOrder(t *testing.T) {
	tasks := []models.Task{
		task("a", "dev", models.StatusNotStarted, 10),
		task("b", "dev", models.StatusNotStarted, 20),
		task("c", "dev", models.StatusNotStarted, 30),
		task("other", "ops", models.StatusNotStarted, 15),
	}
	tagOrder := []string{"dev", "ops"}

	got := MoveWithinGroup(tasks, tagOrder, "c", -1)
	if got[1].Order != 30 || got[2].Order != 20 {
		t.Errorf("orders after move = b:%v c:%v, want b:30 c:20", got[1].Order, got[2].Order)
	}
	if got[0].Order != 10 || got[3].Order != 15 {
		t.Error("move must not touch other tasks")
	}
}

func TestMoveWithinGroup_BoundariesAndDone(t *testing.T) {
	tasks := []models.Task{
		task("a", "dev", models.StatusNotStarted, 1),
		task("b", "dev", models.StatusNotStarted, 2),
		task("done", "dev", models.StatusDone, 0),
	}
	tagOrder := []string{"dev"}

	for _, tc := range []struct {
		id  string
		dir int
	}{{"a", -1}, {"b", 1}, {"done", -1}, {"missing", 1}, {"a", 2}} {
		got := MoveWithinGroup(tasks, tagOrder, tc.id, tc.dir)
		for i := range tasks {
			if got[i].Order != tasks[i].Order {
				t.Errorf("move(%s,%d) changed order of %s", tc.id, tc.dir, tasks[i].ID)
			}
		}
	}
}

func TestInsertManual_OrdersFirst(t *testing.T) {
	tasks := []models.Task{
		task("a", "dev", models.StatusNotStarted, 3),
		task("b", "dev", models.StatusNotStarted, 1),
		task("done", "dev", models.StatusDone, -10),
	}
	got := InsertManual(tasks, []string{"dev"}, "dev", "new", "2025-06-10")
	if got[0].ID != "new" {
		t.Fatalf("new task should be prepended, got %s", got[0].ID)
	}
	if got[0].Order != 0 {
		t.Errorf("Order = %v, want 0 (min non-done 1 minus 1)", got[0].Order)
	}
	if got[0].Status != models.StatusNotStarted || got[0].RegisteredDate != "2025-06-10" {
		t.Errorf("unexpected new task: %+v", got[0])
	}

	empty := InsertManual(nil, []string{"dev"}, "dev", "first", "2025-06-10")
	if empty[0].Order != -1 {
		t.Errorf("Order in empty column = %v, want -1", empty[0].Order)
	}
}

func TestRegisterExtracted_OrdersAfterExistingTag(t *testing.T) {
	tasks := []models.Task{
		task("a", "dev", models.StatusNotStarted, 4),
		task("b", "dev", models.StatusDone, 7),
	}
	drafts := []models.TaskDraft{
		{Name: "one", Tag: "dev"},
		{Name: "two", Tag: "ops", EstimatedMinutes: ip(15)},
		{Name: "three", Tag: "dev"},
	}
	got := RegisterExtracted(tasks, drafts, []string{"n1", "n2", "n3"}, "2025-06-10")
	if len(got) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(got))
	}
	wantOrders := []float64{8, 1, 10}
	for i, want := range wantOrders {
		if got[2+i].Order != want {
			t.Errorf("draft %d order = %v, want %v", i, got[2+i].Order, want)
		}
	}
	if got[3].EstimatedMinutes == nil || *got[3].EstimatedMinutes != 15 {
		t.Error("estimated minutes should carry over from the draft")
	}
}
