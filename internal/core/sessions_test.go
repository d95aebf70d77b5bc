package core

import (
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

func TestRecomputeAccumulated_SkipsOpenSessions(t *testing.T) {
	sessions := []models.WorkSession{
		closed(baseTime, 90*time.Second+900*time.Millisecond),
		closed(baseTime.Add(time.Hour), 30*time.Second),
		{Start: baseTime.Add(2 * time.Hour)},
	}
	if got := RecomputeAccumulated(sessions); got != 120 {
		t.Errorf("RecomputeAccumulated = %d, want 120", got)
	}
}

func TestAddSession_SortsByStart(t *testing.T) {
	sessions := []models.WorkSession{
		closed(baseTime.Add(-time.Hour), time.Minute),
	}
	got := AddSession(sessions, closed(baseTime.Add(-3*time.Hour), time.Minute))
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if !got[0].Start.Before(got[1].Start) {
		t.Error("sessions not sorted ascending by start")
	}
	if len(sessions) != 1 {
		t.Error("AddSession must not modify its input")
	}
}

func TestAddSession_AllowsOverlap(t *testing.T) {
	sessions := []models.WorkSession{closed(baseTime, time.Hour)}
	got := AddSession(sessions, closed(baseTime.Add(30*time.Minute), time.Hour))
	if RecomputeAccumulated(got) != 2*3600 {
		t.Errorf("overlapping sessions should double count, got %d", RecomputeAccumulated(got))
	}
}

func TestUpdateAndRemoveSession_OutOfRange(t *testing.T) {
	sessions := []models.WorkSession{closed(baseTime, time.Minute)}
	if got := UpdateSession(sessions, 3, closed(baseTime, time.Hour)); RecomputeAccumulated(got) != 60 {
		t.Error("UpdateSession out of range should leave sessions unchanged")
	}
	if got := RemoveSession(sessions, -1); len(got) != 1 {
		t.Error("RemoveSession out of range should leave sessions unchanged")
	}
	if got := RemoveSession(sessions, 0); len(got) != 0 {
		t.Errorf("RemoveSession(0) left %d sessions", len(got))
	}
}

func TestValidateSessionInput(t *testing.T) {
	now := baseTime // 12:00 on 2025-06-10
	tests := []struct {
		name      string
		in        SessionInput
		open      bool
		wantField string
	}{
		{"valid closed", SessionInput{Date: "2025-06-10", Start: "9:00", End: "10:30"}, false, ""},
		{"valid open ignores end", SessionInput{Date: "2025-06-10", Start: "11:00", End: "garbage"}, true, ""},
		{"bad start", SessionInput{Date: "2025-06-10", Start: "25:00", End: "10:00"}, false, "start"},
		{"bad end", SessionInput{Date: "2025-06-10", Start: "9:00", End: "9:60"}, false, "end"},
		{"start equals end", SessionInput{Date: "2025-06-10", Start: "9:00", End: "9:00"}, false, "end"},
		{"start after end", SessionInput{Date: "2025-06-10", Start: "10:00", End: "9:00"}, false, "end"},
		{"future end", SessionInput{Date: "2025-06-10", Start: "11:00", End: "13:00"}, false, "end"},
		{"future start open", SessionInput{Date: "2025-06-10", Start: "12:01"}, true, "start"},
		{"future date", SessionInput{Date: "2025-06-11", Start: "9:00", End: "10:00"}, false, "end"},
		{"bad date", SessionInput{Date: "June 10", Start: "9:00", End: "10:00"}, false, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ValidateSessionInput(tt.in, tt.open, now)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.open && end != nil {
					t.Error("open session must not get an end")
				}
				if !tt.open && (end == nil || !start.Before(*end)) {
					t.Error("closed session must end after it starts")
				}
				return
			}
			var verr *SessionValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *SessionValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
