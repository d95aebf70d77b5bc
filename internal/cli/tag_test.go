package cli

import (
	"strings"
	"testing"
)

func TestTagList(t *testing.T) {
	setupBoard(t, sampleWorkspace())

	out, err := runCmd(t, tagListCmd)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	dev := strings.Index(out, "dev")
	ops := strings.Index(out, "ops")
	if dev < 0 || ops < 0 || dev > ops {
		t.Errorf("expected dev before ops, got %q", out)
	}
	if !strings.Contains(out, "1 task(s)") {
		t.Errorf("expected usage counts, got %q", out)
	}
}

func TestTagAdd(t *testing.T) {
	setupBoard(t, sampleWorkspace())

	if _, err := runCmd(t, tagAddCmd, "home"); err != nil {
		t.Fatalf("add: %v", err)
	}
	order := Board.Snapshot().TagOrder
	if len(order) != 3 || order[2] != "home" {
		t.Errorf("tag order = %v, want home appended", order)
	}

	if _, err := runCmd(t, tagAddCmd, "dev"); err == nil {
		t.Error("expected error for duplicate tag")
	}
	if _, err := runCmd(t, tagAddCmd, "  "); err == nil {
		t.Error("expected error for blank tag")
	}
}

func TestTagRm(t *testing.T) {
	setupBoard(t, sampleWorkspace())

	out, err := runCmd(t, tagRmCmd, "ops")
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if !strings.Contains(out, "1 task(s) now untagged") {
		t.Errorf("unexpected output: %q", out)
	}
	if task := mustTask(t, deployID); task.Tag != "" {
		t.Errorf("deploy tag = %q, want untagged", task.Tag)
	}
	if order := Board.Snapshot().TagOrder; len(order) != 1 || order[0] != "dev" {
		t.Errorf("tag order = %v, want [dev]", order)
	}
}

func TestTagMove(t *testing.T) {
	setupBoard(t, sampleWorkspace())

	out, err := runCmd(t, tagMoveCmd, "ops", "up")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "[ops dev]") {
		t.Errorf("unexpected output: %q", out)
	}

	// Moving past the first column leaves the order unchanged.
	out, err = runCmd(t, tagMoveCmd, "ops", "left")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "[ops dev]") {
		t.Errorf("unexpected output: %q", out)
	}

	if groups := Board.Today(); groups[0].Tag != "ops" {
		t.Errorf("first column = %q, want ops", groups[0].Tag)
	}
	if _, err := runCmd(t, tagMoveCmd, "ops", "around"); err == nil {
		t.Error("expected error for invalid direction")
	}
}
