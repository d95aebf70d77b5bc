package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// baseTime is a Tuesday.
var baseTime = time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

const (
	reportID = "aaaa1111-0000-4000-8000-000000000001"
	deployID = "bbbb2222-0000-4000-8000-000000000002"
	standup  = "cccc3333-0000-4000-8000-000000000003"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 10, hour, minute, 0, 0, time.Local)
}

// sampleWorkspace holds an untouched dev task, a paused ops task with one
// ten-minute session and a Tuesday routine.
func sampleWorkspace() models.Workspace {
	ws := models.EmptyWorkspace()
	ws.Tags = []string{"dev", "ops"}
	ws.TagOrder = []string{"dev", "ops"}
	end := at(10, 10)
	ws.Tasks = []models.Task{
		{
			ID: reportID, Name: "Write report", Tag: "dev",
			Status: models.StatusNotStarted, RegisteredDate: "2025-06-10", Order: 1,
		},
		{
			ID: deployID, Name: "Deploy", Tag: "ops", Memo: "staging first",
			Status: models.StatusPaused, RegisteredDate: "2025-06-09", Order: 1,
			AccumulatedTime: 600,
			WorkDates:       []string{"2025-06-10"},
			WorkSessions:    []models.WorkSession{{Start: at(10, 0), End: &end, TaskID: deployID}},
		},
	}
	ws.RoutineTasks = []models.RoutineTemplate{
		{ID: standup, Name: "Standup", Tag: "dev", Days: []string{"tue", "thu"}},
	}
	return ws
}

// setupBoard installs an in-memory board over ws and a fake clock at
// baseTime. The previous globals are restored when the test ends.
func setupBoard(t *testing.T, ws models.Workspace) *clock.FakeClock {
	t.Helper()
	origBoard, origClock, origExtractor := Board, Clock, Extractor
	t.Cleanup(func() {
		Board = origBoard
		Clock = origClock
		Extractor = origExtractor
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Fake(baseTime)
	Clock = clk
	Board = core.NewTaskManager(ws, clk, nil, nil, logger)
	Extractor = core.NewTaskExtractor(nil, logger, nil)
	return clk
}

// runCmd invokes cmd.RunE with args and returns everything written to the
// command's output streams.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetContext(context.Background())
	defer func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	}()
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

// setFlags sets flags on cmd for one test and resets them afterwards.
func setFlags(t *testing.T, cmd *cobra.Command, values map[string]string) {
	t.Helper()
	for name, value := range values {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("setting --%s: %v", name, err)
		}
	}
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	})
}

func mustTask(t *testing.T, id string) models.Task {
	t.Helper()
	task, err := Board.Task(id)
	if err != nil {
		t.Fatalf("Task(%s): %v", id, err)
	}
	return task
}
