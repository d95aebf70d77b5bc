package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

func sampleWorkspace() models.Workspace {
	end := baseTime.Add(-30 * time.Minute)
	minutes := 45
	ws := models.EmptyWorkspace()
	ws.Tags = []string{"dev", "ops"}
	ws.TagOrder = []string{"ops", "dev"}
	ws.Tasks = []models.Task{{
		ID:              "t1",
		Name:            "Write report",
		Tag:             "dev",
		Status:          models.StatusPaused,
		RegisteredDate:  "2025-06-10",
		WorkDates:       []string{"2025-06-10"},
		AccumulatedTime: 1800,
		WorkSessions: []models.WorkSession{{
			Start:  baseTime.Add(-time.Hour),
			End:    &end,
			TaskID: "t1",
		}},
		EstimatedMinutes: &minutes,
		Order:            2,
	}}
	ws.RoutineTasks = []models.RoutineTemplate{{ID: "r1", Name: "Standup", Days: []string{"mon", "tue"}}}
	return ws
}

func TestKVWorkspaceStore_LoadAbsent(t *testing.T) {
	store := NewKVWorkspaceStore(NewMemoryKV(clock.Fake(baseTime)), clock.Fake(baseTime))

	ws, err := store.Load(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.Tasks == nil || ws.Tags == nil || ws.TagOrder == nil || ws.RoutineTasks == nil || ws.Schedules == nil {
		t.Errorf("absent workspace should have non-nil empty collections: %+v", ws)
	}
	if len(ws.Tasks) != 0 || ws.UpdatedAt != nil {
		t.Errorf("absent workspace should be empty: %+v", ws)
	}
}

func TestKVWorkspaceStore_SaveLoad(t *testing.T) {
	clk := clock.Fake(baseTime)
	kv := NewMemoryKV(clk)
	store := NewKVWorkspaceStore(kv, clk)
	ctx := context.Background()

	if err := store.Save(ctx, "a@example.com", sampleWorkspace()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, ok, _ := kv.Get(ctx, "tasks:a@example.com")
	if !ok {
		t.Fatal("workspace should be stored under tasks:<account>")
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("stored blob is not JSON: %v", err)
	}
	for _, key := range []string{"tasks", "tags", "tagOrder", "routineTasks", "schedules", "updatedAt"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("stored blob missing %q", key)
		}
	}

	ws, err := store.Load(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ws.UpdatedAt == nil || !ws.UpdatedAt.Equal(baseTime) {
		t.Errorf("UpdatedAt = %v, want %v", ws.UpdatedAt, baseTime)
	}
	if len(ws.Tasks) != 1 || ws.Tasks[0].AccumulatedTime != 1800 || *ws.Tasks[0].EstimatedMinutes != 45 {
		t.Errorf("tasks did not survive: %+v", ws.Tasks)
	}
	if ws.TagOrder[0] != "ops" {
		t.Errorf("TagOrder = %v", ws.TagOrder)
	}

	other, _ := store.Load(ctx, "b@example.com")
	if len(other.Tasks) != 0 {
		t.Error("accounts must not share workspaces")
	}
}

func TestKVWorkspaceStore_CorruptBlob(t *testing.T) {
	kv := NewMemoryKV(nil)
	kv.Set(context.Background(), WorkspaceKey("a"), "{not json", 0)
	_, err := NewKVWorkspaceStore(kv, nil).Load(context.Background(), "a")
	if err == nil || !strings.Contains(err.Error(), "decoding workspace") {
		t.Errorf("err = %v, want decoding error", err)
	}
}

func TestFileWorkspaceStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "workspace.yaml")
	clk := clock.Fake(baseTime)
	store := NewFileWorkspaceStore(path, clk)
	ctx := context.Background()

	ws, err := store.Load(ctx, "")
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if len(ws.Tasks) != 0 || ws.Tasks == nil {
		t.Errorf("missing file should load as empty workspace")
	}

	if err := store.Save(ctx, "", sampleWorkspace()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "tag_order:") {
		t.Errorf("expected YAML keys in file:\n%s", data)
	}

	loaded, err := store.Load(ctx, "ignored")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Tasks) != 1 || loaded.Tasks[0].WorkSessions[0].End == nil {
		t.Errorf("sessions did not survive: %+v", loaded.Tasks)
	}
	if !loaded.Tasks[0].WorkSessions[0].Start.Equal(baseTime.Add(-time.Hour)) {
		t.Errorf("session start = %v", loaded.Tasks[0].WorkSessions[0].Start)
	}
	if store.Path() != path {
		t.Errorf("Path() = %q", store.Path())
	}
}

func TestFileWorkspaceStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	os.WriteFile(path, []byte("tasks: [unclosed\n"), 0o600)
	if _, err := NewFileWorkspaceStore(path, nil).Load(context.Background(), ""); err == nil {
		t.Error("expected parse error")
	}
}

// --- DebouncedSaver ---

type recordingWriter struct {
	saves []models.Workspace
	err   error
}

func (w *recordingWriter) Save(_ context.Context, _ string, ws models.Workspace) error {
	if w.err != nil {
		return w.err
	}
	w.saves = append(w.saves, ws)
	return nil
}

func workspaceWithTasks(n int) models.Workspace {
	ws := models.EmptyWorkspace()
	for i := 0; i < n; i++ {
		ws.Tasks = append(ws.Tasks, models.Task{ID: string(rune('a' + i))})
	}
	return ws
}

func TestDebouncedSaver_CoalescesBursts(t *testing.T) {
	clk := clock.Fake(baseTime)
	writer := &recordingWriter{}
	saver := NewDebouncedSaver(writer, "acct", 500*time.Millisecond, clk, discardLogger())

	saver.Schedule(workspaceWithTasks(1))
	clk.Advance(300 * time.Millisecond)
	saver.Schedule(workspaceWithTasks(2))
	clk.Advance(300 * time.Millisecond)
	saver.Schedule(workspaceWithTasks(3))

	if len(writer.saves) != 0 {
		t.Fatalf("no write expected during the burst, got %d", len(writer.saves))
	}
	if !saver.Pending() {
		t.Error("Pending() should be true during the burst")
	}

	clk.Advance(500 * time.Millisecond)
	if len(writer.saves) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(writer.saves))
	}
	if got := len(writer.saves[0].Tasks); got != 3 {
		t.Errorf("written snapshot has %d tasks, want the latest (3)", got)
	}
	if saver.Pending() {
		t.Error("Pending() should be false after the write")
	}
	if clk.PendingCount() != 0 {
		t.Errorf("stale timers left: %d", clk.PendingCount())
	}
}

func TestDebouncedSaver_FlushWritesImmediately(t *testing.T) {
	clk := clock.Fake(baseTime)
	writer := &recordingWriter{}
	saver := NewDebouncedSaver(writer, "acct", time.Second, clk, discardLogger())

	if err := saver.Flush(context.Background()); err != nil || len(writer.saves) != 0 {
		t.Fatalf("Flush with nothing pending should be a no-op")
	}

	saver.Schedule(workspaceWithTasks(1))
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(writer.saves) != 1 {
		t.Fatalf("expected one write, got %d", len(writer.saves))
	}

	clk.Advance(2 * time.Second)
	if len(writer.saves) != 1 {
		t.Errorf("timer should have been cancelled by Flush, got %d writes", len(writer.saves))
	}
}

func TestDebouncedSaver_ZeroDelayIsSynchronous(t *testing.T) {
	writer := &recordingWriter{}
	saver := NewDebouncedSaver(writer, "acct", 0, clock.Fake(baseTime), discardLogger())
	saver.Schedule(workspaceWithTasks(2))
	if len(writer.saves) != 1 {
		t.Errorf("expected synchronous write, got %d", len(writer.saves))
	}
}

func TestDebouncedSaver_FailureKeepsSnapshot(t *testing.T) {
	clk := clock.Fake(baseTime)
	writer := &recordingWriter{err: errors.New("disk full")}
	saver := NewDebouncedSaver(writer, "acct", time.Second, clk, discardLogger())

	saver.Schedule(workspaceWithTasks(2))
	clk.Advance(time.Second)

	err := saver.LastError()
	if err == nil || !strings.Contains(err.Error(), "changes not yet saved") {
		t.Fatalf("LastError = %v, want unsaved-changes error", err)
	}
	if !saver.Pending() {
		t.Fatal("failed snapshot should stay pending")
	}

	writer.err = nil
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("retry Flush: %v", err)
	}
	if saver.LastError() != nil {
		t.Errorf("LastError should clear after a successful write")
	}
	if len(writer.saves) != 1 || len(writer.saves[0].Tasks) != 2 {
		t.Errorf("retry should write the failed snapshot: %+v", writer.saves)
	}
}

func TestDebouncedSaver_WithKVStore(t *testing.T) {
	clk := clock.Fake(baseTime)
	store := NewKVWorkspaceStore(NewMemoryKV(clk), clk)
	saver := NewDebouncedSaver(store, "a@example.com", 500*time.Millisecond, clk, discardLogger())

	saver.Schedule(sampleWorkspace())
	clk.Advance(500 * time.Millisecond)

	ws, err := store.Load(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ws.Tasks) != 1 {
		t.Errorf("expected saved workspace, got %+v", ws)
	}
	if !ws.UpdatedAt.Equal(baseTime.Add(500 * time.Millisecond)) {
		t.Errorf("UpdatedAt = %v", ws.UpdatedAt)
	}
}
